package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/seduc-am/planoacao/internal/core"
)

const coordFile = "gestao;coordenadoria;municipio;coordenador;assessor\n" +
	"capital;cde 1;manaus;joao;maria\n" +
	"capital; CDE 2 ;manaus;pedro;maria\n" +
	"interior;regional;Tefé;ana;lucas\n" +
	"interior;REGIONAL;COARI;rui;lucas\n"

func TestImportCoordinators(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	n, err := svc.ImportCoordinators(ctx, []byte(coordFile))
	if err != nil || n != 4 {
		t.Fatalf("ImportCoordinators = %d, %v", n, err)
	}
	page, _ := svc.ListCoordinators(ctx, 1)
	if page.Total != 4 || page.Data[1].Coordenadoria != "CDE 2" || page.Data[2].Municipio != "TEFÉ" {
		t.Errorf("rows = %+v", page.Data)
	}

	_, err = svc.ImportCoordinators(ctx, []byte("h\ncapital;CDE 3;MANAUS\n"))
	if !errors.Is(err, core.ErrStructuralMismatch) {
		t.Errorf("short line = %v, want ErrStructuralMismatch", err)
	}
}

func TestAssign(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	svc.ImportCoordinators(ctx, []byte(coordFile))

	coord := createUser(t, svc, "coord@educacao.am.gov.br", core.Roles{Coordenador: true})
	nig := createUser(t, svc, "nig@educacao.am.gov.br", core.Roles{CoordNIG: true})
	adv := createUser(t, svc, "adv@educacao.am.gov.br", core.Roles{Assessor: true})

	tests := []struct {
		name    string
		user    int64
		role    core.AssignRole
		req     core.AssignRequest
		want    int64
		wantErr error
	}{
		{"coordinator to district", coord.ID, core.AssignCoordinator, core.AssignRequest{Coordenadoria: "cde 1"}, 1, nil},
		{"coord_nig may coordinate", nig.ID, core.AssignCoordinator, core.AssignRequest{Coordenadoria: "CDE 2"}, 1, nil},
		{"regional needs municipio", coord.ID, core.AssignCoordinator, core.AssignRequest{Coordenadoria: "REGIONAL"}, 0, core.ErrValidation},
		{"regional municipio", adv.ID, core.AssignAdvisor, core.AssignRequest{Coordenadoria: "REGIONAL", Municipio: "coari"}, 1, nil},
		{"advisor role required", coord.ID, core.AssignAdvisor, core.AssignRequest{Coordenadoria: "CDE 1"}, 0, core.ErrValidation},
		{"coordinator role required", adv.ID, core.AssignCoordinator, core.AssignRequest{Coordenadoria: "CDE 1"}, 0, core.ErrValidation},
		{"unknown coordenadoria", coord.ID, core.AssignCoordinator, core.AssignRequest{Coordenadoria: "CDE 9"}, 0, core.ErrNotFound},
		{"unknown user", 999, core.AssignCoordinator, core.AssignRequest{Coordenadoria: "CDE 1"}, 0, core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := svc.Assign(ctx, tt.user, tt.role, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Assign = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || n != tt.want {
				t.Fatalf("Assign = %d, %v, want %d", n, err, tt.want)
			}
		})
	}

	rows, err := svc.CoordinatorsByAdvisor(ctx, adv.ID)
	if err != nil || len(rows) != 1 || rows[0].Municipio != "COARI" {
		t.Errorf("advisor rows = %+v, %v", rows, err)
	}
	if _, err := svc.CoordinatorsByUser(ctx, adv.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("user without rows = %v, want ErrNotFound", err)
	}
}

func TestSchoolsForUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	svc.ImportCoordinators(ctx, []byte(coordFile))
	svc.ImportSchools(ctx, []byte("sigeam;escola;municipio;distrito\n"+
		"1;Escola A;Manaus;CDE 1\n"+
		"2;Escola B;Manaus;CDE 2\n"+
		"3;Escola C;Tefé;-\n"+
		"4;Escola D;Coari;\n"))
	svc.ImportPlans(ctx, []byte(importHeader+"\n"+importRow("1")+"\n"+importRow("3")+"\n"+importRow("4")+"\n"+
		"PROJETO;c;3;i;a;t;r;01/02/2024;30/06/2024;;;;;;;;\n"))

	coord := createUser(t, svc, "coord@educacao.am.gov.br", core.Roles{Coordenador: true})
	adv := createUser(t, svc, "adv@educacao.am.gov.br", core.Roles{Assessor: true})
	svc.Assign(ctx, coord.ID, core.AssignCoordinator, core.AssignRequest{Coordenadoria: "CDE 1"})
	svc.Assign(ctx, adv.ID, core.AssignAdvisor, core.AssignRequest{Coordenadoria: "REGIONAL", Municipio: "TEFÉ"})

	all, err := svc.SchoolsWithPlans(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("schools with plans = %d, want 3 (school 2 has none)", len(all))
	}
	if got := all[1]; got.Sigeam != "3" || len(got.TiposAcao) != 2 || got.Coordinator == nil || got.Coordinator.Municipio != "TEFÉ" {
		t.Errorf("school 3 view = %+v", got)
	}

	mine, _ := svc.SchoolsForUser(ctx, coord.ID)
	if len(mine) != 1 || mine[0].Sigeam != "1" {
		t.Errorf("coordinator schools = %+v", mine)
	}
	theirs, _ := svc.SchoolsForUser(ctx, adv.ID)
	if len(theirs) != 1 || theirs[0].Sigeam != "3" {
		t.Errorf("advisor schools = %+v", theirs)
	}

	export, err := svc.ExportDataForUser(ctx, adv.ID)
	if err != nil || len(export.Rows) != 2 {
		t.Errorf("advisor export rows = %d, %v", len(export.Rows), err)
	}
	none, _ := svc.ExportDataForUser(ctx, 999)
	if len(none.Rows) != 0 {
		t.Errorf("user without schools exported %d rows", len(none.Rows))
	}

	if _, err := svc.SchoolWithPlans(ctx, "2"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("school without plans = %v", err)
	}
	page, _ := svc.SchoolPlans(ctx, "PROJETO", "3", 1)
	if page.Total != 1 || page.PerPage != core.SchoolPlansPerPage {
		t.Errorf("school plans page = %+v", page)
	}
}
