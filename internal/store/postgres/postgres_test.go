package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/seduc-am/planoacao/internal/config"
	"github.com/seduc-am/planoacao/internal/core"
)

// newTestStore connects to TEST_DATABASE_URL, migrates and empties every
// table. Tests are skipped when the variable is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres store tests")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, config.DatabaseConfig{
		URL:             url,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE planosacao, coordenadores, escolas, users RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return New(pool)
}

func plan(sigeam, tipo string) core.ActionPlan {
	return core.ActionPlan{
		TipoAcao:   tipo,
		Sigeam:     sigeam,
		PrevInicio: core.ParseExternalDate("01/02/2024"),
		PrevFim:    core.ParseExternalDate("01/03/2024"),
		Ano:        core.ToPgInt4(2024),
		CreatedAt:  time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC),
	}
}

func TestPlanLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.InsertPlans(ctx, []core.ActionPlan{plan("100", "A"), plan("100", "B"), plan("200", "A")})
	if err != nil || n != 3 {
		t.Fatalf("InsertPlans = %d, %v", n, err)
	}

	page, total, err := s.ListPlans(ctx, core.PlanFilter{Sigeams: []string{"100"}}, core.PageRequest{Page: 1, PerPage: 1})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(page) != 1 {
		t.Errorf("ListPlans = %d rows / total %d", len(page), total)
	}

	updated, err := s.UpdatePlan(ctx, 1, func(p *core.ActionPlan) error {
		p.Override = core.OverrideCompleted
		return nil
	})
	if err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}
	if updated.Override != core.OverrideCompleted {
		t.Errorf("override = %q", updated.Override)
	}

	types, err := s.ActionTypesBySigeam(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := types["100"]; len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("types[100] = %v", got)
	}

	if err := s.DeletePlan(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetPlan(ctx, 1); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetPlan after delete = %v", err)
	}
}

func TestInsertPlansNotNull(t *testing.T) {
	s := newTestStore(t)
	p := plan("1", "A")
	p.PrevInicio = core.ParseExternalDate("")
	if _, err := s.InsertPlans(context.Background(), []core.ActionPlan{p}); err == nil {
		t.Fatal("expected not-null violation")
	}
}

func TestUpsertPlans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orig, err := s.CreatePlan(ctx, plan("1", "A"))
	if err != nil {
		t.Fatal(err)
	}

	repl := plan("9", "Z")
	repl.ID = orig.ID
	repl.Ano = core.ToPgInt4(2030)
	repl.CreatedAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := plan("5", "N")
	fresh.ID = 50

	if _, err := s.UpsertPlans(ctx, []core.ActionPlan{repl, fresh}); err != nil {
		t.Fatalf("UpsertPlans: %v", err)
	}

	got, _ := s.GetPlan(ctx, orig.ID)
	if got.Sigeam != "9" || got.Ano.Int32 != 2024 || !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("upserted row = %+v", got)
	}

	next, err := s.CreatePlan(ctx, plan("x", "A"))
	if err != nil {
		t.Fatal(err)
	}
	if next.ID != 51 {
		t.Errorf("next id = %d, want 51", next.ID)
	}
}

func TestUsersAndCoordinators(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, core.User{Name: "Ana", Email: "ana@educacao.am.gov.br", PasswordHash: "x", Ativo: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateUser(ctx, core.User{Name: "Ana", Email: "ANA@educacao.am.gov.br", PasswordHash: "x"}); !errors.Is(err, core.ErrEmailTaken) {
		t.Errorf("duplicate email = %v, want ErrEmailTaken", err)
	}

	if _, err := s.InsertCoordinators(ctx, []core.Coordinator{
		{Coordenadoria: "CDE 1"},
		{Coordenadoria: "REGIONAL", Municipio: "TEFE"},
		{Coordenadoria: "REGIONAL", Municipio: "COARI"},
	}); err != nil {
		t.Fatal(err)
	}
	n, err := s.AssignCoordinator(ctx, core.CoordinatorMatch{Coordenadoria: "REGIONAL", Municipio: "TEFE"}, core.AssignAdvisor, u.ID)
	if err != nil || n != 1 {
		t.Fatalf("AssignCoordinator = %d, %v", n, err)
	}
	rows, _ := s.CoordinatorsByAdvisor(ctx, u.ID)
	if len(rows) != 1 || rows[0].Municipio != "TEFE" {
		t.Errorf("advisor rows = %+v", rows)
	}

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if rows, _ := s.CoordinatorsByAdvisor(ctx, u.ID); len(rows) != 0 {
		t.Errorf("rows still reference deleted user: %d", len(rows))
	}
}

func TestSchools(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.InsertSchools(ctx, []core.School{
		{Sigeam: "200", Escola: "B", Municipio: "TEFE", Distrito: "-"},
		{Sigeam: "100", Escola: "A", Municipio: "MANAUS", Distrito: "CDE 1"},
	}); err != nil {
		t.Fatal(err)
	}
	got, err := s.ListSchools(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Sigeam != "100" {
		t.Errorf("ListSchools = %+v", got)
	}
}

func TestDatabaseName(t *testing.T) {
	if got := DatabaseName("postgres://u:p@localhost:5432/planos?sslmode=disable"); got != "planos" {
		t.Errorf("DatabaseName = %q", got)
	}
}
