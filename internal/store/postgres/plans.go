package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/seduc-am/planoacao/internal/core"
)

const planColumns = `id, tipo_acao, causa_correlacionda, sigeam, indicador, acao, tarefa,
	responsavel, prev_inicio, prev_fim, real_inicio, real_fim, status,
	relato_exec_taref, pontos_probl, acao_fut, responsavel_atras, prazo_final,
	ano, created_at, updated_at`

// planInsertColumns is planColumns without id, in CopyFrom order.
var planInsertColumns = []string{
	"tipo_acao", "causa_correlacionda", "sigeam", "indicador", "acao", "tarefa",
	"responsavel", "prev_inicio", "prev_fim", "real_inicio", "real_fim", "status",
	"relato_exec_taref", "pontos_probl", "acao_fut", "responsavel_atras", "prazo_final",
	"ano", "created_at", "updated_at",
}

func scanPlan(row pgx.Row) (core.ActionPlan, error) {
	var p core.ActionPlan
	var status string
	err := row.Scan(
		&p.ID, &p.TipoAcao, &p.CausaCorrelacionda, &p.Sigeam, &p.Indicador, &p.Acao, &p.Tarefa,
		&p.Responsavel, &p.PrevInicio, &p.PrevFim, &p.RealInicio, &p.RealFim, &status,
		&p.RelatoExecTaref, &p.PontosProbl, &p.AcaoFut, &p.ResponsavelAtras, &p.PrazoFinal,
		&p.Ano, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Override = core.StatusOverride(status)
	return p, err
}

func collectPlans(rows pgx.Rows) ([]core.ActionPlan, error) {
	defer rows.Close()
	out := make([]core.ActionPlan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// planValues returns the insertable columns of p in planInsertColumns order.
func planValues(p core.ActionPlan) []any {
	return []any{
		p.TipoAcao, p.CausaCorrelacionda, p.Sigeam, p.Indicador, p.Acao, p.Tarefa,
		p.Responsavel, p.PrevInicio, p.PrevFim, p.RealInicio, p.RealFim, string(p.Override),
		p.RelatoExecTaref, p.PontosProbl, p.AcaoFut, p.ResponsavelAtras, p.PrazoFinal,
		p.Ano, p.CreatedAt, p.UpdatedAt,
	}
}

func planWhere(f core.PlanFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.Year != 0 {
		w.add("ano = $%d", f.Year)
	}
	if len(f.Sigeams) > 0 {
		w.add("sigeam = ANY($%d)", f.Sigeams)
	}
	if f.TipoAcao != "" {
		w.add("tipo_acao = $%d", f.TipoAcao)
	}
	return w
}

func getPlan(ctx context.Context, db DBTX, id int64, lock bool) (core.ActionPlan, error) {
	query := "SELECT " + planColumns + " FROM planosacao WHERE id = $1"
	if lock {
		query += " FOR UPDATE"
	}
	p, err := scanPlan(db.QueryRow(ctx, query, id))
	return p, mapError(err)
}

func (s *Store) GetPlan(ctx context.Context, id int64) (core.ActionPlan, error) {
	return getPlan(ctx, s.pool, id, false)
}

func (s *Store) ListPlans(ctx context.Context, f core.PlanFilter, page core.PageRequest) ([]core.ActionPlan, int, error) {
	w := planWhere(f)

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM planosacao"+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count plans: %w", err)
	}

	query := "SELECT " + planColumns + " FROM planosacao" + w.String() + " ORDER BY id"
	args := w.args
	if page.PerPage > 0 {
		query += " LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
		args = append(args, page.PerPage, page.Offset())
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list plans: %w", err)
	}
	plans, err := collectPlans(rows)
	return plans, total, err
}

func (s *Store) AllPlans(ctx context.Context, f core.PlanFilter) ([]core.ActionPlan, error) {
	w := planWhere(f)
	rows, err := s.pool.Query(ctx, "SELECT "+planColumns+" FROM planosacao"+w.String()+" ORDER BY id", w.args...)
	if err != nil {
		return nil, fmt.Errorf("scan plans: %w", err)
	}
	return collectPlans(rows)
}

func (s *Store) CreatePlan(ctx context.Context, p core.ActionPlan) (core.ActionPlan, error) {
	query := "INSERT INTO planosacao (" + joinColumns(planInsertColumns) + ") VALUES (" +
		placeholders(1, len(planInsertColumns)) + ") RETURNING " + planColumns
	created, err := scanPlan(s.pool.QueryRow(ctx, query, planValues(p)...))
	return created, mapError(err)
}

func (s *Store) UpdatePlan(ctx context.Context, id int64, fn func(*core.ActionPlan) error) (core.ActionPlan, error) {
	var saved core.ActionPlan
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		p, err := getPlan(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := fn(&p); err != nil {
			return err
		}
		set := make([]string, len(planInsertColumns))
		for i, col := range planInsertColumns {
			set[i] = col + " = $" + strconv.Itoa(i+2)
		}
		args := append([]any{id}, planValues(p)...)
		saved, err = scanPlan(tx.QueryRow(ctx, "UPDATE planosacao SET "+strings.Join(set, ", ")+" WHERE id = $1 RETURNING "+planColumns, args...))
		return mapError(err)
	})
	return saved, err
}

func (s *Store) DeletePlan(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM planosacao WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// InsertPlans copies one batch; COPY is all-or-nothing.
func (s *Store) InsertPlans(ctx context.Context, plans []core.ActionPlan) (int64, error) {
	rows := make([][]any, len(plans))
	for i, p := range plans {
		rows[i] = planValues(p)
	}
	return s.pool.CopyFrom(ctx, pgx.Identifier{"planosacao"}, planInsertColumns, pgx.CopyFromRows(rows))
}

// upsertPlanSQL replaces every mapped column of an existing row but keeps
// created_at and ano.
var upsertPlanSQL = func() string {
	cols := append([]string{"id"}, planInsertColumns...)
	var set []string
	for _, col := range planInsertColumns {
		if col == "created_at" || col == "ano" {
			continue
		}
		set = append(set, col+" = EXCLUDED."+col)
	}
	return "INSERT INTO planosacao (" + joinColumns(cols) + ") VALUES (" + placeholders(1, len(cols)) +
		") ON CONFLICT (id) DO UPDATE SET " + strings.Join(set, ", ")
}()

// UpsertPlans writes one batch in a transaction and moves the id sequence
// past the largest explicit id.
func (s *Store) UpsertPlans(ctx context.Context, plans []core.ActionPlan) (int64, error) {
	var affected int64
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range plans {
			batch.Queue(upsertPlanSQL, append([]any{p.ID}, planValues(p)...)...)
		}
		results := tx.SendBatch(ctx, batch)
		for range plans {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				return err
			}
			affected += tag.RowsAffected()
		}
		if err := results.Close(); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `SELECT setval(pg_get_serial_sequence('planosacao', 'id'),
			GREATEST((SELECT COALESCE(MAX(id), 0) FROM planosacao), 1))`)
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (s *Store) ActionTypesBySigeam(ctx context.Context) (map[string][]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT sigeam, array_agg(DISTINCT tipo_acao ORDER BY tipo_acao)
		FROM planosacao GROUP BY sigeam`)
	if err != nil {
		return nil, fmt.Errorf("action types: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var sigeam string
		var types []string
		if err := rows.Scan(&sigeam, &types); err != nil {
			return nil, err
		}
		out[sigeam] = types
	}
	return out, rows.Err()
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

// placeholders renders "$from, ..., $(from+n-1)".
func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = "$" + strconv.Itoa(from+i)
	}
	return strings.Join(ps, ", ")
}
