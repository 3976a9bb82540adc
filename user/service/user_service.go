package service

import (
	"context"
	stderrors "errors"

	"leadmsg/backend/pkg/errors"
	"leadmsg/backend/user/models"
	"leadmsg/backend/user/repository"

	"gorm.io/gorm"
)

// UserService owns user accounts and answers identity-resolution queries
// for the messaging core.
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Signup creates a new user account.
func (s *UserService) Signup(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if existing, err := s.repo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, errors.NewValidationError("email is already registered")
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, errors.NewPersistenceError("failed to create user")
	}
	return user, nil
}

// Authenticate verifies credentials and returns the matching user.
func (s *UserService) Authenticate(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.NewUnauthenticatedError("invalid email or password")
	}
	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, errors.NewUnauthenticatedError("invalid email or password")
	}
	return user, nil
}

// GetByID returns the user with the given id.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("user not found")
		}
		return nil, errors.NewPersistenceError("failed to load user")
	}
	return user, nil
}

// Resolve checks that every id names a real user and returns them keyed by id.
// Unresolvable ids produce a ValidationError listing the missing ids.
func (s *UserService) Resolve(ctx context.Context, ids []string) (map[string]models.User, error) {
	if len(ids) == 0 {
		return map[string]models.User{}, nil
	}

	users, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.NewPersistenceError("failed to resolve users")
	}

	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	var missing []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewValidationError("unknown user id(s)").WithDetails(missing)
	}

	return byID, nil
}
