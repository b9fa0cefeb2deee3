// Package admin provides operator tasks run outside the HTTP API.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/seduc-am/planoacao/internal/core"
)

// BootstrapTimeout bounds Bootstrap.
const BootstrapTimeout = 30 * time.Second

// Bootstrap creates the first administrator. When an active administrator
// already exists nothing is written and that account is returned with
// created=false.
func Bootstrap(ctx context.Context, svc *core.Service, name, email, password string) (user core.User, created bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, BootstrapTimeout)
	defer cancel()

	users, err := svc.ListUsers(ctx)
	if err != nil {
		return core.User{}, false, err
	}
	for _, u := range users {
		if u.Admin && u.Ativo {
			slog.Info("administrator already present", "user_id", u.ID)
			return u, false, nil
		}
	}

	u, err := svc.CreateUser(ctx, core.CreateUserRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Roles:    core.Roles{Admin: true},
	})
	if err != nil {
		return core.User{}, false, fmt.Errorf("bootstrap admin: %w", err)
	}
	return u, true, nil
}
