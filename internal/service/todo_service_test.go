package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"todoapp/internal/domain"
	"todoapp/internal/repository"
)

type TodoServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service TodoService
	userID  uint
}

func (s *TodoServiceTestSuite) SetupTest() {
	var err error
	s.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(s.db.AutoMigrate(&domain.User{}, &domain.Todo{}))

	user := &domain.User{Email: "user@example.com"}
	s.Require().NoError(s.db.Create(user).Error)
	s.userID = user.ID

	s.service = NewTodoService(repository.NewGormTodoRepository(s.db))
}

func (s *TodoServiceTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *TodoServiceTestSuite) TestCreateAppliesDefaults() {
	resp, err := s.service.CreateTodo(context.Background(), CreateTodoRequest{
		Title:  "Buy milk",
		UserID: s.userID,
	})
	s.Require().NoError(err)

	s.NotZero(resp.ID)
	s.False(resp.Completed)
	s.Equal(domain.PriorityMedium, resp.Priority)
	s.Nil(resp.DueDate)
	s.Equal(resp.CreatedAt, resp.UpdatedAt)
}

func (s *TodoServiceTestSuite) TestCreateRejectsMissingFields() {
	_, err := s.service.CreateTodo(context.Background(), CreateTodoRequest{})
	s.Require().ErrorIs(err, ErrValidation)
	s.Contains(err.Error(), "title")
	s.Contains(err.Error(), "user_id")
}

func (s *TodoServiceTestSuite) TestCreateRejectsUnknownPriority() {
	bad := domain.Priority("URGENT")
	_, err := s.service.CreateTodo(context.Background(), CreateTodoRequest{
		Title:    "Buy milk",
		UserID:   s.userID,
		Priority: &bad,
	})
	s.Require().ErrorIs(err, ErrValidation)
	s.Contains(err.Error(), "priority")
}

func (s *TodoServiceTestSuite) TestCreateParsesDueDate() {
	due := "2025-07-01"
	resp, err := s.service.CreateTodo(context.Background(), CreateTodoRequest{
		Title:   "Buy milk",
		UserID:  s.userID,
		DueDate: &due,
	})
	s.Require().NoError(err)
	s.Require().NotNil(resp.DueDate)
	s.Equal("2025-07-01T00:00:00Z", *resp.DueDate)

	bad := "next tuesday"
	_, err = s.service.CreateTodo(context.Background(), CreateTodoRequest{
		Title:   "Buy milk",
		UserID:  s.userID,
		DueDate: &bad,
	})
	s.ErrorIs(err, ErrValidation)
}

func (s *TodoServiceTestSuite) TestGetRoundTripsCreatedFields() {
	desc := "2 liters, whole"
	created, err := s.service.CreateTodo(context.Background(), CreateTodoRequest{
		Title:       "Buy milk",
		UserID:      s.userID,
		Description: &desc,
	})
	s.Require().NoError(err)

	got, err := s.service.GetTodoByID(context.Background(), created.ID)
	s.Require().NoError(err)
	s.Equal(created.Title, got.Title)
	s.Require().NotNil(got.Description)
	s.Equal(desc, *got.Description)
	s.Equal(created.Priority, got.Priority)
	s.Equal(created.CreatedAt, got.CreatedAt)
	s.Require().NotNil(got.User)
	s.Equal("user@example.com", got.User.Email)
}

func (s *TodoServiceTestSuite) TestGetNotFound() {
	_, err := s.service.GetTodoByID(context.Background(), 9999)
	s.ErrorIs(err, ErrTodoNotFound)
}

func (s *TodoServiceTestSuite) TestUpdateAppliesOnlyProvidedFields() {
	created, err := s.service.CreateTodo(context.Background(), CreateTodoRequest{
		Title:  "Buy milk",
		UserID: s.userID,
	})
	s.Require().NoError(err)

	completed := true
	updated, err := s.service.UpdateTodo(context.Background(), created.ID, UpdateTodoRequest{
		Completed: &completed,
	})
	s.Require().NoError(err)
	s.True(updated.Completed)
	s.Equal("Buy milk", updated.Title, "omitted fields are untouched")
}

func (s *TodoServiceTestSuite) TestUpdateRejectsEmptyTitle() {
	created, err := s.service.CreateTodo(context.Background(), CreateTodoRequest{
		Title:  "Buy milk",
		UserID: s.userID,
	})
	s.Require().NoError(err)

	empty := ""
	_, err = s.service.UpdateTodo(context.Background(), created.ID, UpdateTodoRequest{Title: &empty})
	s.ErrorIs(err, ErrValidation)
}

func (s *TodoServiceTestSuite) TestUpdateNotFound() {
	completed := true
	_, err := s.service.UpdateTodo(context.Background(), 9999, UpdateTodoRequest{Completed: &completed})
	s.ErrorIs(err, ErrTodoNotFound)
}

func (s *TodoServiceTestSuite) TestDeleteThenGetNotFound() {
	created, err := s.service.CreateTodo(context.Background(), CreateTodoRequest{
		Title:  "Buy milk",
		UserID: s.userID,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteTodo(context.Background(), created.ID))

	_, err = s.service.GetTodoByID(context.Background(), created.ID)
	s.ErrorIs(err, ErrTodoNotFound)

	s.ErrorIs(s.service.DeleteTodo(context.Background(), created.ID), ErrTodoNotFound)
}

func TestTodoServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TodoServiceTestSuite))
}
