package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/seduc-am/planoacao/internal/core"
)

const coordinatorColumns = "id, gestao, coordenadoria, municipio, coordenador, assessor, user_id, assessor_id"

func (s *Store) queryCoordinators(ctx context.Context, query string, args ...any) ([]core.Coordinator, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query coordinators: %w", err)
	}
	defer rows.Close()

	out := make([]core.Coordinator, 0)
	for rows.Next() {
		var c core.Coordinator
		if err := rows.Scan(&c.ID, &c.Gestao, &c.Coordenadoria, &c.Municipio, &c.Coordenador,
			&c.Assessor, &c.UserID, &c.AssessorID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListCoordinators(ctx context.Context, page core.PageRequest) ([]core.Coordinator, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM coordenadores").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count coordinators: %w", err)
	}
	rows, err := s.queryCoordinators(ctx,
		"SELECT "+coordinatorColumns+" FROM coordenadores ORDER BY id LIMIT $1 OFFSET $2",
		page.PerPage, page.Offset())
	return rows, total, err
}

func (s *Store) AllCoordinators(ctx context.Context) ([]core.Coordinator, error) {
	return s.queryCoordinators(ctx, "SELECT "+coordinatorColumns+" FROM coordenadores ORDER BY id")
}

func (s *Store) CoordinatorsByUser(ctx context.Context, userID int64) ([]core.Coordinator, error) {
	return s.queryCoordinators(ctx, "SELECT "+coordinatorColumns+" FROM coordenadores WHERE user_id = $1 ORDER BY id", userID)
}

func (s *Store) CoordinatorsByAdvisor(ctx context.Context, userID int64) ([]core.Coordinator, error) {
	return s.queryCoordinators(ctx, "SELECT "+coordinatorColumns+" FROM coordenadores WHERE assessor_id = $1 ORDER BY id", userID)
}

func (s *Store) InsertCoordinators(ctx context.Context, rows []core.Coordinator) (int64, error) {
	return s.pool.CopyFrom(ctx,
		pgx.Identifier{"coordenadores"},
		[]string{"gestao", "coordenadoria", "municipio", "coordenador", "assessor", "user_id", "assessor_id"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			c := rows[i]
			return []any{c.Gestao, c.Coordenadoria, c.Municipio, c.Coordenador, c.Assessor, c.UserID, c.AssessorID}, nil
		}),
	)
}

func (s *Store) AssignCoordinator(ctx context.Context, m core.CoordinatorMatch, role core.AssignRole, userID int64) (int64, error) {
	column := "user_id"
	if role == core.AssignAdvisor {
		column = "assessor_id"
	}
	w := &whereBuilder{}
	w.add("coordenadoria = $%d", m.Coordenadoria)
	if m.Municipio != "" {
		w.add("municipio = $%d", m.Municipio)
	}
	args := append(w.args, userID)
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf("UPDATE coordenadores SET %s = $%d%s", column, len(args), w.String()),
		args...)
	if err != nil {
		return 0, fmt.Errorf("assign %s: %w", role, err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DeleteCoordinator(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM coordenadores WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete coordinator: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
