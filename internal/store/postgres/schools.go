package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/seduc-am/planoacao/internal/core"
)

func (s *Store) ListSchools(ctx context.Context) ([]core.School, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, sigeam, escola, municipio, distrito FROM escolas ORDER BY sigeam, id")
	if err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	schools, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.School, error) {
		var sc core.School
		err := row.Scan(&sc.ID, &sc.Sigeam, &sc.Escola, &sc.Municipio, &sc.Distrito)
		return sc, err
	})
	if schools == nil {
		schools = []core.School{}
	}
	return schools, err
}

func (s *Store) InsertSchools(ctx context.Context, rows []core.School) (int64, error) {
	return s.pool.CopyFrom(ctx,
		pgx.Identifier{"escolas"},
		[]string{"sigeam", "escola", "municipio", "distrito"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			sc := rows[i]
			return []any{sc.Sigeam, sc.Escola, sc.Municipio, sc.Distrito}, nil
		}),
	)
}
