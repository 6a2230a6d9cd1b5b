package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"admarket/internal/model"
	"admarket/internal/repository"
)

// UserService handles business logic for user accounts
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register creates a new account. The email unique constraint is the
// duplicate check, so concurrent sign-ups with the same email cannot both
// succeed.
func (s *UserService) Register(ctx context.Context, req *model.SignUpRequest) (*model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		PasswordHashed: string(hashedPassword),
		Street:         &req.Street,
		City:           &req.City,
		PostalCode:     &req.PostalCode,
		Country:        &req.Country,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if err == model.ErrEmailExists {
			return nil, model.ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user with email and password. Unknown email and
// wrong password return the identical error so accounts cannot be enumerated.
func (s *UserService) Login(ctx context.Context, req *model.SignInRequest) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password))
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile updates the caller's username and address fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	return s.repo.UpdateProfile(ctx, userID, req)
}
