package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/seduc-am/planoacao/internal/logging"
)

// Field is a JSON member that tells an absent key from an explicit null.
type Field[T any] struct {
	Set   bool // key present in the document
	Valid bool // present and not null
	Value T
}

// UnmarshalJSON is only called for keys present in the document.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// SetField builds a present, non-null Field.
func SetField[T any](v T) Field[T] {
	return Field[T]{Set: true, Valid: true, Value: v}
}

// NullField builds a present, null Field.
func NullField[T any]() Field[T] {
	return Field[T]{Set: true}
}

// CreatePlanRequest is the body of a manual plan registration. Dates are
// ISO (YYYY-MM-DD).
type CreatePlanRequest struct {
	TipoAcao           string `json:"tipo_acao" validate:"required"`
	CausaCorrelacionda string `json:"causa_correlacionda" validate:"required"`
	Sigeam             string `json:"sigeam" validate:"required"`
	Indicador          string `json:"indicador" validate:"required"`
	Acao               string `json:"acao" validate:"required"`
	Tarefa             string `json:"tarefa" validate:"required"`
	Responsavel        string `json:"responsavel" validate:"required"`
	PrevInicio         string `json:"prev_inicio" validate:"required,datetime=2006-01-02"`
	PrevFim            string `json:"prev_fim" validate:"required,datetime=2006-01-02"`
	RealInicio         string `json:"real_inicio" validate:"omitempty,datetime=2006-01-02"`
	RealFim            string `json:"real_fim" validate:"omitempty,datetime=2006-01-02"`
	PrazoFinal         string `json:"prazo_final" validate:"omitempty,datetime=2006-01-02"`
	Status             string `json:"status" validate:"required"`
	RelatoExecTaref    string `json:"relato_exec_taref"`
	PontosProbl        string `json:"pontos_probl"`
	AcaoFut            string `json:"acao_fut"`
	ResponsavelAtras   string `json:"responsavel_atras"`
}

// UpdatePlanRequest is a partial update of the execution fields. Absent
// keys are left untouched; explicit nulls clear the field.
type UpdatePlanRequest struct {
	RealInicio       Field[string] `json:"real_inicio"`
	RealFim          Field[string] `json:"real_fim"`
	Status           Field[string] `json:"status"`
	RelatoExecTaref  Field[string] `json:"relato_exec_taref"`
	PontosProbl      Field[string] `json:"pontos_probl"`
	AcaoFut          Field[string] `json:"acao_fut"`
	ResponsavelAtras Field[string] `json:"responsavel_atras"`
	PrazoFinal       Field[string] `json:"prazo_final"`
}

// ListPlans returns one page of plans ordered by id. A zero year lists
// every year.
func (s *Service) ListPlans(ctx context.Context, year, page int) (Page[PlanView], error) {
	req := PageRequest{Page: page, PerPage: PlansPerPage}
	plans, total, err := s.store.ListPlans(ctx, PlanFilter{Year: year}, req)
	if err != nil {
		return Page[PlanView]{}, fmt.Errorf("list plans: %w", err)
	}
	return NewPage(req, total, s.views(plans)), nil
}

// GetPlan returns one plan with its status.
func (s *Service) GetPlan(ctx context.Context, id int64) (PlanView, error) {
	p, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return PlanView{}, fmt.Errorf("get plan %d: %w", id, err)
	}
	return View(p, s.clock.Now()), nil
}

// CreatePlan registers a plan typed by an operator.
func (s *Service) CreatePlan(ctx context.Context, req CreatePlanRequest) (PlanView, error) {
	if err := validateStruct(req); err != nil {
		return PlanView{}, err
	}

	p := ActionPlan{
		TipoAcao:           strings.TrimSpace(req.TipoAcao),
		CausaCorrelacionda: strings.TrimSpace(req.CausaCorrelacionda),
		Sigeam:             strings.TrimSpace(req.Sigeam),
		Indicador:          strings.TrimSpace(req.Indicador),
		Acao:               strings.TrimSpace(req.Acao),
		Tarefa:             strings.TrimSpace(req.Tarefa),
		Responsavel:        strings.TrimSpace(req.Responsavel),
		Override:           StatusOverride(strings.TrimSpace(req.Status)),
		RelatoExecTaref:    ToPgText(req.RelatoExecTaref),
		PontosProbl:        ToPgText(req.PontosProbl),
		AcaoFut:            ToPgText(req.AcaoFut),
		ResponsavelAtras:   ToPgText(req.ResponsavelAtras),
	}

	// Formats were checked by the validator; errors here cannot happen.
	p.PrevInicio, _ = ParseISODate(req.PrevInicio)
	p.PrevFim, _ = ParseISODate(req.PrevFim)
	p.RealInicio, _ = ParseISODate(req.RealInicio)
	p.RealFim, _ = ParseISODate(req.RealFim)
	p.PrazoFinal, _ = ParseISODate(req.PrazoFinal)

	now := s.clock.Now()
	stampCreation(&p, now)

	created, err := s.store.CreatePlan(ctx, p)
	if err != nil {
		return PlanView{}, fmt.Errorf("create plan: %w", err)
	}
	logging.FromContext(ctx).Info("plan created", "plan_id", created.ID, "sigeam", created.Sigeam)
	return View(created, now), nil
}

// UpdatePlan applies a partial update. A cancelling status writes only the
// status. Otherwise an execution report must be sent together with a
// completed status; a stored completed status is not enough.
func (s *Service) UpdatePlan(ctx context.Context, id int64, req UpdatePlanRequest) (PlanView, error) {
	dates, err := parseUpdateDates(req)
	if err != nil {
		return PlanView{}, err
	}

	now := s.clock.Now()
	updated, err := s.store.UpdatePlan(ctx, id, func(p *ActionPlan) error {
		if req.Status.Set {
			status := StatusOverride(strings.TrimSpace(req.Status.Value))
			if status.Cancelled() {
				p.Override = status
				p.UpdatedAt = now
				return nil
			}
		}

		var submitted StatusOverride
		if req.Status.Set {
			submitted = StatusOverride(strings.TrimSpace(req.Status.Value))
		}
		if req.RelatoExecTaref.Valid && strings.TrimSpace(req.RelatoExecTaref.Value) != "" && !submitted.Completed() {
			return ErrReportRequiresCompletion
		}

		if req.Status.Set {
			p.Override = submitted
		}
		applyDate(&p.RealInicio, req.RealInicio, dates["real_inicio"])
		applyDate(&p.RealFim, req.RealFim, dates["real_fim"])
		applyDate(&p.PrazoFinal, req.PrazoFinal, dates["prazo_final"])
		applyText(&p.RelatoExecTaref, req.RelatoExecTaref)
		applyText(&p.PontosProbl, req.PontosProbl)
		applyText(&p.AcaoFut, req.AcaoFut)
		applyText(&p.ResponsavelAtras, req.ResponsavelAtras)
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return PlanView{}, fmt.Errorf("update plan %d: %w", id, err)
	}

	logging.FromContext(ctx).Info("plan updated", "plan_id", id, "status", string(updated.Override))
	return View(updated, now), nil
}

func parseUpdateDates(req UpdatePlanRequest) (map[string]pgtype.Date, error) {
	out := make(map[string]pgtype.Date, 3)
	verr := &ValidationError{Fields: map[string]string{}}

	for name, f := range map[string]Field[string]{
		"real_inicio": req.RealInicio,
		"real_fim":    req.RealFim,
		"prazo_final": req.PrazoFinal,
	} {
		if !f.Valid {
			continue
		}
		d, err := ParseISODate(f.Value)
		if err != nil {
			verr.Fields[name] = err.Error()
			continue
		}
		out[name] = d
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return out, nil
}

func applyDate(dst *pgtype.Date, f Field[string], parsed pgtype.Date) {
	if !f.Set {
		return
	}
	if !f.Valid {
		*dst = pgtype.Date{}
		return
	}
	*dst = parsed
}

func applyText(dst *pgtype.Text, f Field[string]) {
	if !f.Set {
		return
	}
	if !f.Valid {
		*dst = pgtype.Text{}
		return
	}
	*dst = ToPgText(f.Value)
}

// DeletePlan removes a plan permanently.
func (s *Service) DeletePlan(ctx context.Context, id int64) error {
	if err := s.store.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("delete plan %d: %w", id, err)
	}
	logging.FromContext(ctx).Info("plan deleted", "plan_id", id)
	return nil
}

func (s *Service) views(plans []ActionPlan) []PlanView {
	now := s.clock.Now()
	out := make([]PlanView, len(plans))
	for i, p := range plans {
		out[i] = View(p, now)
	}
	return out
}
