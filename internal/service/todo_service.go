package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"todoapp/internal/domain"
	"todoapp/internal/repository"
)

// Sentinel errors the HTTP layer maps to status codes. Anything else coming
// out of the service is a store failure and becomes a 500.
var (
	ErrValidation   = errors.New("invalid request")
	ErrTodoNotFound = errors.New("todo not found")
)

// CreateTodoRequest holds the data needed to create a new todo. Title and
// UserID are the only required fields.
type CreateTodoRequest struct {
	Title       string           `json:"title" validate:"required"`
	UserID      uint             `json:"user_id" validate:"required"`
	Description *string          `json:"description"`
	DueDate     *string          `json:"due_date"`
	Priority    *domain.Priority `json:"priority"`
}

// UpdateTodoRequest holds a partial update. Pointer fields distinguish
// "omitted" from "set to the zero value".
type UpdateTodoRequest struct {
	Title       *string          `json:"title"`
	Completed   *bool            `json:"completed"`
	Description *string          `json:"description"`
	DueDate     *string          `json:"due_date"`
	Priority    *domain.Priority `json:"priority"`
}

// UserResponse is the embedded owner representation.
type UserResponse struct {
	ID    uint    `json:"id"`
	Name  *string `json:"name"`
	Email string  `json:"email"`
}

// TodoResponse is the wire representation of a todo. Timestamps cross the
// API boundary as RFC 3339 strings.
type TodoResponse struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Completed   bool            `json:"completed"`
	DueDate     *string         `json:"due_date"`
	Priority    domain.Priority `json:"priority"`
	UserID      uint            `json:"user_id"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
	User        *UserResponse   `json:"user,omitempty"`
}

// TodoService contains the business logic for todos.
type TodoService interface {
	CreateTodo(ctx context.Context, req CreateTodoRequest) (*TodoResponse, error)
	GetTodoByID(ctx context.Context, id uint) (*TodoResponse, error)
	GetAllTodos(ctx context.Context) ([]TodoResponse, error)
	UpdateTodo(ctx context.Context, id uint, req UpdateTodoRequest) (*TodoResponse, error)
	DeleteTodo(ctx context.Context, id uint) error
}

type todoService struct {
	repo     repository.TodoRepository
	validate *validator.Validate
}

// NewTodoService creates a todo service on top of the given repository.
func NewTodoService(repo repository.TodoRepository) TodoService {
	return &todoService{
		repo:     repo,
		validate: validator.New(),
	}
}

func (s *todoService) CreateTodo(ctx context.Context, req CreateTodoRequest) (*TodoResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	priority := domain.PriorityMedium
	if req.Priority != nil && *req.Priority != "" {
		if !req.Priority.Valid() {
			return nil, fmt.Errorf("%w: priority must be one of LOW, MEDIUM, HIGH", ErrValidation)
		}
		priority = *req.Priority
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	newTodo := &domain.Todo{
		Title:       req.Title,
		Description: req.Description,
		Completed:   false,
		DueDate:     dueDate,
		Priority:    priority,
		UserID:      req.UserID,
	}

	if err := s.repo.Create(newTodo); err != nil {
		log.Printf("Error creating todo in repository: %v", err)
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	resp := toTodoResponse(newTodo)
	return &resp, nil
}

func (s *todoService) GetTodoByID(ctx context.Context, id uint) (*TodoResponse, error) {
	todo, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		log.Printf("Error fetching todo %d from repository: %v", id, err)
		return nil, fmt.Errorf("failed to retrieve todo: %w", err)
	}

	resp := toTodoResponse(todo)
	return &resp, nil
}

func (s *todoService) GetAllTodos(ctx context.Context) ([]TodoResponse, error) {
	todos, err := s.repo.FindAll()
	if err != nil {
		log.Printf("Error fetching all todos from repository: %v", err)
		return nil, fmt.Errorf("failed to retrieve todos: %w", err)
	}

	responses := make([]TodoResponse, 0, len(todos))
	for i := range todos {
		responses = append(responses, toTodoResponse(&todos[i]))
	}
	return responses, nil
}

func (s *todoService) UpdateTodo(ctx context.Context, id uint, req UpdateTodoRequest) (*TodoResponse, error) {
	todo, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		log.Printf("Error fetching todo %d for update: %v", id, err)
		return nil, fmt.Errorf("failed to retrieve todo for update: %w", err)
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		todo.Title = *req.Title
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}
	if req.Description != nil {
		todo.Description = req.Description
	}
	if req.DueDate != nil && *req.DueDate != "" {
		dueDate, err := parseDueDate(req.DueDate)
		if err != nil {
			return nil, err
		}
		todo.DueDate = dueDate
	}
	if req.Priority != nil && *req.Priority != "" {
		if !req.Priority.Valid() {
			return nil, fmt.Errorf("%w: priority must be one of LOW, MEDIUM, HIGH", ErrValidation)
		}
		todo.Priority = *req.Priority
	}

	if err := s.repo.Update(todo); err != nil {
		log.Printf("Error updating todo %d in repository: %v", id, err)
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	resp := toTodoResponse(todo)
	return &resp, nil
}

func (s *todoService) DeleteTodo(ctx context.Context, id uint) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTodoNotFound
		}
		log.Printf("Error deleting todo %d from repository: %v", id, err)
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}

// parseDueDate accepts an RFC 3339 timestamp or a plain date. Absent or
// empty maps to null.
func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, fmt.Errorf("%w: due_date must be an ISO-8601 date", ErrValidation)
	}
	return &t, nil
}

func toTodoResponse(todo *domain.Todo) TodoResponse {
	resp := TodoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		Priority:    todo.Priority,
		UserID:      todo.UserID,
		CreatedAt:   todo.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   todo.UpdatedAt.Format(time.RFC3339),
	}
	if todo.DueDate != nil {
		due := todo.DueDate.Format(time.RFC3339)
		resp.DueDate = &due
	}
	if todo.User != nil {
		resp.User = &UserResponse{
			ID:    todo.User.ID,
			Name:  todo.User.Name,
			Email: todo.User.Email,
		}
	}
	return resp
}

// validationError turns validator failures into a single ErrValidation
// naming every missing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s is required", jsonFieldName(fe.Field())))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func jsonFieldName(field string) string {
	switch field {
	case "Title":
		return "title"
	case "UserID":
		return "user_id"
	case "Email":
		return "email"
	}
	return strings.ToLower(field)
}
