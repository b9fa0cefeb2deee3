package core

import "context"

// PlanStore persists action plans.
//
// InsertPlans and UpsertPlans receive one batch per call and are not wrapped
// in a transaction spanning calls: batches already written stay written if a
// later one fails. CreatePlan, UpdatePlan and DeletePlan are transactional.
type PlanStore interface {
	GetPlan(ctx context.Context, id int64) (ActionPlan, error)
	ListPlans(ctx context.Context, f PlanFilter, page PageRequest) ([]ActionPlan, int, error)
	AllPlans(ctx context.Context, f PlanFilter) ([]ActionPlan, error)
	CreatePlan(ctx context.Context, p ActionPlan) (ActionPlan, error)
	// UpdatePlan loads the plan, applies fn and saves the result atomically.
	UpdatePlan(ctx context.Context, id int64, fn func(*ActionPlan) error) (ActionPlan, error)
	DeletePlan(ctx context.Context, id int64) error
	InsertPlans(ctx context.Context, plans []ActionPlan) (int64, error)
	// UpsertPlans matches by ID. Matched rows get every mapped field
	// replaced while keeping created_at and ano; unmatched rows are inserted
	// with their ID.
	UpsertPlans(ctx context.Context, plans []ActionPlan) (int64, error)
	// ActionTypesBySigeam returns the distinct tipo_acao values per sigeam,
	// for every sigeam that has at least one plan.
	ActionTypesBySigeam(ctx context.Context) (map[string][]string, error)
}

// UserStore persists operator accounts.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, u User) (User, error)
	UpdateUser(ctx context.Context, id int64, fn func(*User) error) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// CoordinatorStore persists jurisdiction rows.
type CoordinatorStore interface {
	ListCoordinators(ctx context.Context, page PageRequest) ([]Coordinator, int, error)
	AllCoordinators(ctx context.Context) ([]Coordinator, error)
	CoordinatorsByUser(ctx context.Context, userID int64) ([]Coordinator, error)
	CoordinatorsByAdvisor(ctx context.Context, userID int64) ([]Coordinator, error)
	InsertCoordinators(ctx context.Context, rows []Coordinator) (int64, error)
	// AssignCoordinator sets user_id (AssignCoordinator) or assessor_id
	// (AssignAdvisor) on every matching row and returns how many matched.
	AssignCoordinator(ctx context.Context, m CoordinatorMatch, role AssignRole, userID int64) (int64, error)
	DeleteCoordinator(ctx context.Context, id int64) error
}

// SchoolStore reads and loads school reference data.
type SchoolStore interface {
	ListSchools(ctx context.Context) ([]School, error)
	InsertSchools(ctx context.Context, rows []School) (int64, error)
}

// Store is the full record store consumed by Service.
type Store interface {
	PlanStore
	UserStore
	CoordinatorStore
	SchoolStore
	Ping(ctx context.Context) error
}
