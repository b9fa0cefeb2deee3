package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/seduc-am/planoacao/internal/logging"
)

// CreateUserRequest is the body of an account creation.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,deptemail"`
	Password string `json:"password" validate:"required,min=6"`
	Roles
	Ativo *bool `json:"ativo"`
}

// UpdateUserRequest changes an account. Nil members are left untouched.
type UpdateUserRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email       *string `json:"email" validate:"omitempty,email,deptemail"`
	Password    *string `json:"password" validate:"omitempty,min=6"`
	Admin       *bool   `json:"admin"`
	Assessor    *bool   `json:"assessor"`
	PEscola     *bool   `json:"p_escola"`
	Coordenador *bool   `json:"coordenador"`
	CoordNIG    *bool   `json:"coord_nig"`
	Secretaria  *bool   `json:"secretaria"`
	Ativo       *bool   `json:"ativo"`
}

func (s *Service) hashPassword(password string) (string, error) {
	cost := s.opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ListUsers returns every account ordered by id.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns one account.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// CreateUser registers an account with a hashed password. New accounts are
// active unless the request says otherwise.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return User{}, err
	}
	if err := s.ensureEmailFree(ctx, req.Email, 0); err != nil {
		return User{}, err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return User{}, err
	}

	now := s.clock.Now()
	u := User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Roles:        req.Roles,
		Ativo:        req.Ativo == nil || *req.Ativo,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	logging.FromContext(ctx).Info("user created", "target_user_id", created.ID)
	return created, nil
}

// UpdateUser applies the non-nil members of req. Changing the password or
// deactivating the account revokes its tokens.
func (s *Service) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (User, error) {
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := validateStruct(req); err != nil {
		return User{}, err
	}
	if req.Email != nil {
		if err := s.ensureEmailFree(ctx, *req.Email, id); err != nil {
			return User{}, err
		}
	}

	var hash string
	if req.Password != nil {
		h, err := s.hashPassword(*req.Password)
		if err != nil {
			return User{}, err
		}
		hash = h
	}

	updated, err := s.store.UpdateUser(ctx, id, func(u *User) error {
		if req.Name != nil {
			u.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			u.Email = *req.Email
		}
		if hash != "" {
			u.PasswordHash = hash
			u.TokenVersion++
		}
		setBool(&u.Admin, req.Admin)
		setBool(&u.Assessor, req.Assessor)
		setBool(&u.PEscola, req.PEscola)
		setBool(&u.Coordenador, req.Coordenador)
		setBool(&u.CoordNIG, req.CoordNIG)
		setBool(&u.Secretaria, req.Secretaria)
		if req.Ativo != nil {
			if u.Ativo && !*req.Ativo {
				u.TokenVersion++
			}
			u.Ativo = *req.Ativo
		}
		u.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	logging.FromContext(ctx).Info("user updated", "target_user_id", id)
	return updated, nil
}

// DeleteUser removes an account. Coordinator rows pointing at it lose the
// reference.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	logging.FromContext(ctx).Info("user deleted", "target_user_id", id)
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email string, self int64) error {
	existing, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check email: %w", err)
	case existing.ID != self:
		return ErrEmailTaken
	}
	return nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
