package service

import (
	"context"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"

	"todoapp/internal/domain"
	"todoapp/internal/repository"
)

// CreateUserRequest holds the data needed to create a user. Only the email
// is required; the name is optional.
type CreateUserRequest struct {
	Name  *string `json:"name"`
	Email string  `json:"email" validate:"required"`
}

// UserService contains the business logic for users. Users are never
// mutated or deleted through the API.
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	GetAllUsers(ctx context.Context) ([]UserResponse, error)
}

type userService struct {
	repo     repository.UserRepository
	validate *validator.Validate
}

// NewUserService creates a user service on top of the given repository.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{
		repo:     repo,
		validate: validator.New(),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	newUser := &domain.User{
		Name:  req.Name,
		Email: req.Email,
	}

	if err := s.repo.Create(newUser); err != nil {
		log.Printf("Error creating user in repository: %v", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &UserResponse{
		ID:    newUser.ID,
		Name:  newUser.Name,
		Email: newUser.Email,
	}, nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.FindAll()
	if err != nil {
		log.Printf("Error fetching all users from repository: %v", err)
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, UserResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		})
	}
	return responses, nil
}
