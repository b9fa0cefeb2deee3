package core

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// FieldType represents the expected data type for a CSV field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldDate
	FieldInt
)

// FieldSpec binds one external CSV column to a record field.
type FieldSpec struct {
	Name     string    // Column header as it appears in spreadsheets
	DBColumn string    // Record field / database column
	Type     FieldType // Expected data type
	Required bool      // Field cannot be null once stored
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// ActionPlan is a remediation task tied to a school (sigeam) and an indicator.
type ActionPlan struct {
	ID                 int64          `json:"id"`
	TipoAcao           string         `json:"tipo_acao"`
	CausaCorrelacionda string         `json:"causa_correlacionda"`
	Sigeam             string         `json:"sigeam"`
	Indicador          string         `json:"indicador"`
	Acao               string         `json:"acao"`
	Tarefa             string         `json:"tarefa"`
	Responsavel        string         `json:"responsavel"`
	PrevInicio         pgtype.Date    `json:"prev_inicio"`
	PrevFim            pgtype.Date    `json:"prev_fim"`
	RealInicio         pgtype.Date    `json:"real_inicio"`
	RealFim            pgtype.Date    `json:"real_fim"`
	Override           StatusOverride `json:"status_override"`
	RelatoExecTaref    pgtype.Text    `json:"relato_exec_taref"`
	PontosProbl        pgtype.Text    `json:"pontos_probl"`
	AcaoFut            pgtype.Text    `json:"acao_fut"`
	ResponsavelAtras   pgtype.Text    `json:"responsavel_atras"`
	PrazoFinal         pgtype.Date    `json:"prazo_final"`
	Ano                pgtype.Int4    `json:"ano"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// PlanView is an ActionPlan with its derived status, as returned to clients.
type PlanView struct {
	ActionPlan
	Status      Status `json:"status"`
	StatusLabel string `json:"status_label"`
}

// PlanFilter narrows plan scans. Zero values mean "no restriction".
type PlanFilter struct {
	Year     int
	Sigeams  []string
	TipoAcao string
}

// Coordinator is one jurisdiction row: a coordenadoria, or a municipio of
// the REGIONAL coordenadoria.
type Coordinator struct {
	ID            int64       `json:"id"`
	Gestao        string      `json:"gestao"`
	Coordenadoria string      `json:"coordenadoria"`
	Municipio     string      `json:"municipio"`
	Coordenador   string      `json:"coordenador"`
	Assessor      string      `json:"assessor"`
	UserID        pgtype.Int8 `json:"user_id"`
	AssessorID    pgtype.Int8 `json:"assessor_id"`
}

// AssignRole selects which foreign key an assignment writes.
type AssignRole int

const (
	AssignCoordinator AssignRole = iota
	AssignAdvisor
)

func (r AssignRole) String() string {
	if r == AssignAdvisor {
		return "assessor"
	}
	return "coordenador"
}

// CoordinatorMatch selects the rows an assignment touches. An empty
// Municipio matches every row of the coordenadoria.
type CoordinatorMatch struct {
	Coordenadoria string
	Municipio     string
}

// School is static reference data for a site code.
type School struct {
	ID        int64  `json:"id"`
	Sigeam    string `json:"sigeam"`
	Escola    string `json:"escola"`
	Municipio string `json:"municipio"`
	Distrito  string `json:"distrito"`
}

// SchoolView is a school with the action types of its plans and the
// coordinator row responsible for it.
type SchoolView struct {
	School
	TiposAcao   []string     `json:"tipos_acao"`
	Coordinator *Coordinator `json:"coordenador"`
}

// Roles are the permission flags carried by a user.
type Roles struct {
	Admin       bool `json:"admin"`
	Assessor    bool `json:"assessor"`
	PEscola     bool `json:"p_escola"`
	Coordenador bool `json:"coordenador"`
	CoordNIG    bool `json:"coord_nig"`
	Secretaria  bool `json:"secretaria"`
}

// Any reports whether at least one role flag is set.
func (r Roles) Any() bool {
	return r.Admin || r.Assessor || r.PEscola || r.Coordenador || r.CoordNIG || r.Secretaria
}

// User is an operator account.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Roles
	Ativo        bool      `json:"ativo"`
	TokenVersion int       `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PageRequest is a 1-based page request.
type PageRequest struct {
	Page    int
	PerPage int
}

// Offset returns the row offset for the page.
func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Page is a slice of results plus pagination metadata.
type Page[T any] struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
	Data        []T `json:"data"`
}

// NewPage assembles pagination metadata around one page of data.
func NewPage[T any](req PageRequest, total int, data []T) Page[T] {
	last := 1
	if req.PerPage > 0 && total > 0 {
		last = (total + req.PerPage - 1) / req.PerPage
	}
	if data == nil {
		data = []T{}
	}
	current := req.Page
	if current < 1 {
		current = 1
	}
	return Page[T]{
		CurrentPage: current,
		PerPage:     req.PerPage,
		Total:       total,
		LastPage:    last,
		Data:        data,
	}
}

// ImportResult summarizes an import-mode run.
type ImportResult struct {
	Inserted int64         `json:"inserted"`
	Skipped  int           `json:"skipped"`
	Batches  int           `json:"batches"`
	Duration time.Duration `json:"duration"`
}

// UpdateResult summarizes an update-mode run.
type UpdateResult struct {
	Upserted int64         `json:"upserted"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}
