package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/seduc-am/planoacao/internal/core"
)

const userColumns = `id, name, email, password_hash, admin, assessor, p_escola, coordenador,
	coord_nig, secretaria, ativo, token_version, created_at, updated_at`

func scanUser(row pgx.Row) (core.User, error) {
	var u core.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Admin, &u.Assessor, &u.PEscola, &u.Coordenador,
		&u.CoordNIG, &u.Secretaria, &u.Ativo, &u.TokenVersion, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, mapError(err)
}

func getUser(ctx context.Context, db DBTX, id int64, lock bool) (core.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = $1"
	if lock {
		query += " FOR UPDATE"
	}
	return scanUser(db.QueryRow(ctx, query, id))
}

func (s *Store) GetUser(ctx context.Context, id int64) (core.User, error) {
	return getUser(ctx, s.pool, id, false)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return scanUser(s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE lower(email) = lower($1)", email))
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]core.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, admin, assessor, p_escola, coordenador,
			coord_nig, secretaria, ativo, token_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, u.Admin, u.Assessor, u.PEscola, u.Coordenador,
		u.CoordNIG, u.Secretaria, u.Ativo, u.TokenVersion, u.CreatedAt, u.UpdatedAt,
	))
}

func (s *Store) UpdateUser(ctx context.Context, id int64, fn func(*core.User) error) (core.User, error) {
	var saved core.User
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		u, err := getUser(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := fn(&u); err != nil {
			return err
		}
		saved, err = scanUser(tx.QueryRow(ctx, `
			UPDATE users SET name = $2, email = $3, password_hash = $4, admin = $5, assessor = $6,
				p_escola = $7, coordenador = $8, coord_nig = $9, secretaria = $10, ativo = $11,
				token_version = $12, updated_at = $13
			WHERE id = $1
			RETURNING `+userColumns,
			id, u.Name, u.Email, u.PasswordHash, u.Admin, u.Assessor,
			u.PEscola, u.Coordenador, u.CoordNIG, u.Secretaria, u.Ativo,
			u.TokenVersion, u.UpdatedAt,
		))
		return err
	})
	return saved, err
}

// DeleteUser removes the account; coordinator rows referencing it are
// cleared by ON DELETE SET NULL.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
