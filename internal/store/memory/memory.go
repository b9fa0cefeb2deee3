// Package memory is an in-process implementation of core.Store. It backs
// STORE_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/seduc-am/planoacao/internal/core"
)

// Store keeps every record in maps guarded by one mutex. Callbacks passed to
// UpdatePlan and UpdateUser run on a copy, so a failing callback leaves the
// stored record untouched.
type Store struct {
	mu sync.RWMutex

	plans      map[int64]core.ActionPlan
	nextPlanID int64

	users      map[int64]core.User
	nextUserID int64

	coords      map[int64]core.Coordinator
	nextCoordID int64

	schools      map[int64]core.School
	nextSchoolID int64
}

var _ core.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		plans:        make(map[int64]core.ActionPlan),
		nextPlanID:   1,
		users:        make(map[int64]core.User),
		nextUserID:   1,
		coords:       make(map[int64]core.Coordinator),
		nextCoordID:  1,
		schools:      make(map[int64]core.School),
		nextSchoolID: 1,
	}
}

// Ping implements core.Store.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ---- plans ----

func (s *Store) GetPlan(_ context.Context, id int64) (core.ActionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	if !ok {
		return core.ActionPlan{}, core.ErrNotFound
	}
	return p, nil
}

func matchPlan(p core.ActionPlan, f core.PlanFilter) bool {
	if f.Year != 0 && (!p.Ano.Valid || int(p.Ano.Int32) != f.Year) {
		return false
	}
	if len(f.Sigeams) > 0 && !slices.Contains(f.Sigeams, p.Sigeam) {
		return false
	}
	if f.TipoAcao != "" && p.TipoAcao != f.TipoAcao {
		return false
	}
	return true
}

func (s *Store) filterPlans(f core.PlanFilter) []core.ActionPlan {
	out := make([]core.ActionPlan, 0, len(s.plans))
	for _, p := range s.plans {
		if matchPlan(p, f) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ListPlans(_ context.Context, f core.PlanFilter, page core.PageRequest) ([]core.ActionPlan, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.filterPlans(f)
	return paginate(all, page), len(all), nil
}

func (s *Store) AllPlans(_ context.Context, f core.PlanFilter) ([]core.ActionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterPlans(f), nil
}

func (s *Store) CreatePlan(_ context.Context, p core.ActionPlan) (core.ActionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkPlan(p); err != nil {
		return core.ActionPlan{}, err
	}
	p.ID = s.nextPlanID
	s.nextPlanID++
	s.plans[p.ID] = p
	return p, nil
}

func (s *Store) UpdatePlan(_ context.Context, id int64, fn func(*core.ActionPlan) error) (core.ActionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return core.ActionPlan{}, core.ErrNotFound
	}
	if err := fn(&p); err != nil {
		return core.ActionPlan{}, err
	}
	p.ID = id
	s.plans[id] = p
	return p, nil
}

func (s *Store) DeletePlan(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.plans, id)
	return nil
}

// InsertPlans is all-or-nothing per batch, like a COPY.
func (s *Store) InsertPlans(_ context.Context, plans []core.ActionPlan) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range plans {
		if err := checkPlan(p); err != nil {
			return 0, err
		}
	}
	for _, p := range plans {
		p.ID = s.nextPlanID
		s.nextPlanID++
		s.plans[p.ID] = p
	}
	return int64(len(plans)), nil
}

func (s *Store) UpsertPlans(_ context.Context, plans []core.ActionPlan) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range plans {
		if err := checkPlan(p); err != nil {
			return 0, err
		}
	}
	for _, p := range plans {
		if old, ok := s.plans[p.ID]; ok {
			p.CreatedAt = old.CreatedAt
			p.Ano = old.Ano
		}
		s.plans[p.ID] = p
		if p.ID >= s.nextPlanID {
			s.nextPlanID = p.ID + 1
		}
	}
	return int64(len(plans)), nil
}

func (s *Store) ActionTypesBySigeam(_ context.Context) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string)
	for _, p := range s.plans {
		if !slices.Contains(out[p.Sigeam], p.TipoAcao) {
			out[p.Sigeam] = append(out[p.Sigeam], p.TipoAcao)
		}
	}
	for k := range out {
		sort.Strings(out[k])
	}
	return out, nil
}

// checkPlan mirrors the NOT NULL constraints of the planosacao table.
func checkPlan(p core.ActionPlan) error {
	if !p.PrevInicio.Valid {
		return notNull("prev_inicio")
	}
	if !p.PrevFim.Valid {
		return notNull("prev_fim")
	}
	return nil
}

type constraintError string

func (e constraintError) Error() string { return string(e) }

func notNull(column string) error {
	return constraintError(`null value in column "` + column + `" of relation "planosacao" violates not-null constraint`)
}

// ---- users ----

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) emailTaken(email string, self int64) bool {
	for _, u := range s.users {
		if u.ID != self && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(u.Email, 0) {
		return core.User{}, core.ErrEmailTaken
	}
	u.ID = s.nextUserID
	s.nextUserID++
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, id int64, fn func(*core.User) error) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	if err := fn(&u); err != nil {
		return core.User{}, err
	}
	if s.emailTaken(u.Email, id) {
		return core.User{}, core.ErrEmailTaken
	}
	u.ID = id
	s.users[id] = u
	return u, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.users, id)
	for cid, c := range s.coords {
		if c.UserID.Valid && c.UserID.Int64 == id {
			c.UserID = core.ToPgInt8(0)
		}
		if c.AssessorID.Valid && c.AssessorID.Int64 == id {
			c.AssessorID = core.ToPgInt8(0)
		}
		s.coords[cid] = c
	}
	return nil
}

// ---- coordinators ----

func (s *Store) sortedCoords(keep func(core.Coordinator) bool) []core.Coordinator {
	out := make([]core.Coordinator, 0, len(s.coords))
	for _, c := range s.coords {
		if keep == nil || keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ListCoordinators(_ context.Context, page core.PageRequest) ([]core.Coordinator, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.sortedCoords(nil)
	return paginate(all, page), len(all), nil
}

func (s *Store) AllCoordinators(_ context.Context) ([]core.Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedCoords(nil), nil
}

func (s *Store) CoordinatorsByUser(_ context.Context, userID int64) ([]core.Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedCoords(func(c core.Coordinator) bool {
		return c.UserID.Valid && c.UserID.Int64 == userID
	}), nil
}

func (s *Store) CoordinatorsByAdvisor(_ context.Context, userID int64) ([]core.Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedCoords(func(c core.Coordinator) bool {
		return c.AssessorID.Valid && c.AssessorID.Int64 == userID
	}), nil
}

func (s *Store) InsertCoordinators(_ context.Context, rows []core.Coordinator) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range rows {
		c.ID = s.nextCoordID
		s.nextCoordID++
		s.coords[c.ID] = c
	}
	return int64(len(rows)), nil
}

func (s *Store) AssignCoordinator(_ context.Context, m core.CoordinatorMatch, role core.AssignRole, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, c := range s.coords {
		if c.Coordenadoria != m.Coordenadoria {
			continue
		}
		if m.Municipio != "" && c.Municipio != m.Municipio {
			continue
		}
		if role == core.AssignAdvisor {
			c.AssessorID = core.ToPgInt8(userID)
		} else {
			c.UserID = core.ToPgInt8(userID)
		}
		s.coords[id] = c
		n++
	}
	return n, nil
}

func (s *Store) DeleteCoordinator(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.coords[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.coords, id)
	return nil
}

// ---- schools ----

func (s *Store) ListSchools(_ context.Context) ([]core.School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.School, 0, len(s.schools))
	for _, sc := range s.schools {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sigeam < out[j].Sigeam })
	return out, nil
}

func (s *Store) InsertSchools(_ context.Context, rows []core.School) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range rows {
		sc.ID = s.nextSchoolID
		s.nextSchoolID++
		s.schools[sc.ID] = sc
	}
	return int64(len(rows)), nil
}

func paginate[T any](all []T, page core.PageRequest) []T {
	if page.PerPage <= 0 {
		return all
	}
	start := page.Offset()
	if start >= len(all) {
		return []T{}
	}
	end := min(start+page.PerPage, len(all))
	return all[start:end]
}
