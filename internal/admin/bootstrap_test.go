package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/seduc-am/planoacao/internal/core"
	"github.com/seduc-am/planoacao/internal/store/memory"
)

func TestBootstrap(t *testing.T) {
	svc := core.NewService(memory.New(), nil, nil, core.Options{JWTSecret: []byte("k"), BcryptCost: 4})
	ctx := context.Background()

	u, created, err := Bootstrap(ctx, svc, "Admin", "admin@educacao.am.gov.br", "segredo123")
	if err != nil || !created || !u.Admin {
		t.Fatalf("first Bootstrap = %+v, %v, %v", u, created, err)
	}

	again, created, err := Bootstrap(ctx, svc, "Outro", "outro@educacao.am.gov.br", "segredo123")
	if err != nil || created || again.ID != u.ID {
		t.Errorf("second Bootstrap = %+v, %v, %v", again, created, err)
	}
}

func TestBootstrapRejectsForeignDomain(t *testing.T) {
	svc := core.NewService(memory.New(), nil, nil, core.Options{JWTSecret: []byte("k"), BcryptCost: 4})
	_, _, err := Bootstrap(context.Background(), svc, "Admin", "admin@gmail.com", "segredo123")
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("err = %v, want validation failure", err)
	}
}
