package service

import (
	"context"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/policy"
)

const minPasswordLength = 6

func (s *Service) ListUsers(ctx context.Context) (domain.UserListResponse, error) {
	if _, err := s.authorize(ctx, policy.ViewUsers); err != nil {
		return domain.UserListResponse{}, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return domain.UserListResponse{}, err
	}
	return domain.UserListResponse{Users: users}, nil
}

func (s *Service) CreateUser(ctx context.Context, in domain.UserInput) (domain.UserAccount, error) {
	actor, err := s.authorize(ctx, policy.ManageUsers)
	if err != nil {
		return domain.UserAccount{}, err
	}
	user, err := userFromInput(in, true)
	if err != nil {
		return domain.UserAccount{}, err
	}
	if err := policy.CanAssignRole(actor.Role, user.Role); err != nil {
		return domain.UserAccount{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserAccount{}, err
	}
	user.Password = string(hash)
	user.CreatedAt = s.now()

	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return domain.UserAccount{}, err
	}
	return *created, nil
}

// UpdateUser replaces profile fields and role. An empty password keeps the
// current one. Admins can neither grant Super Admin nor edit a Super Admin.
func (s *Service) UpdateUser(ctx context.Context, id string, in domain.UserInput) (domain.UserAccount, error) {
	actor, err := s.authorize(ctx, policy.ManageUsers)
	if err != nil {
		return domain.UserAccount{}, err
	}
	current, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return domain.UserAccount{}, err
	}
	if err := policy.CanAssignRole(actor.Role, current.Role); err != nil {
		return domain.UserAccount{}, err
	}

	user, err := userFromInput(in, false)
	if err != nil {
		return domain.UserAccount{}, err
	}
	if err := policy.CanAssignRole(actor.Role, user.Role); err != nil {
		return domain.UserAccount{}, err
	}
	user.ID = current.ID
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return domain.UserAccount{}, err
		}
		user.Password = string(hash)
	}

	updated, err := s.repo.UpdateUser(ctx, user)
	if err != nil {
		return domain.UserAccount{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		_, err := s.authorize(ctx, policy.DeleteUsers)
		return err
	}
	if err := policy.CanDeleteUser(actor, id); err != nil {
		return err
	}
	return s.repo.DeleteUser(ctx, id)
}

func userFromInput(in domain.UserInput, requirePassword bool) (domain.UserAccount, error) {
	user := domain.UserAccount{
		Username: strings.ToLower(strings.TrimSpace(in.Username)),
		Fullname: strings.TrimSpace(in.Fullname),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Role:     strings.TrimSpace(in.Role),
	}
	if len(user.Username) < 3 {
		return domain.UserAccount{}, invalid("username", "must be at least 3 characters")
	}
	if strings.ContainsAny(user.Username, " \t\r\n") {
		return domain.UserAccount{}, invalid("username", "must not contain spaces")
	}
	if user.Email != "" {
		if _, err := mail.ParseAddress(user.Email); err != nil {
			return domain.UserAccount{}, invalid("email", "is not a valid address")
		}
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if !policy.ValidRole(user.Role) {
		return domain.UserAccount{}, invalid("role", "must be one of %s, %s, %s", domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleUser)
	}
	if requirePassword && len(in.Password) < minPasswordLength {
		return domain.UserAccount{}, invalid("password", "must be at least %d characters", minPasswordLength)
	}
	if !requirePassword && in.Password != "" && len(in.Password) < minPasswordLength {
		return domain.UserAccount{}, invalid("password", "must be at least %d characters", minPasswordLength)
	}
	return user, nil
}
