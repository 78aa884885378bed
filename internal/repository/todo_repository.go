package repository

import (
	"todoapp/internal/domain"

	"gorm.io/gorm"
)

// TodoRepository defines the data operations for todos.
type TodoRepository interface {
	Create(todo *domain.Todo) error
	FindByID(id uint) (*domain.Todo, error)
	FindAll() ([]domain.Todo, error)
	Update(todo *domain.Todo) error
	Delete(id uint) error
}

type gormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a GORM-backed todo repository.
func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

func (r *gormTodoRepository) Create(todo *domain.Todo) error {
	return r.db.Create(todo).Error
}

// FindByID loads a todo with its owning user.
func (r *gormTodoRepository) FindByID(id uint) (*domain.Todo, error) {
	var todo domain.Todo
	if err := r.db.Preload("User").First(&todo, id).Error; err != nil {
		return nil, err
	}
	return &todo, nil
}

// FindAll returns todos joined with their owning user, newest first.
func (r *gormTodoRepository) FindAll() ([]domain.Todo, error) {
	var todos []domain.Todo
	err := r.db.Preload("User").Order("created_at DESC").Find(&todos).Error
	if err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *gormTodoRepository) Update(todo *domain.Todo) error {
	return r.db.Save(todo).Error
}

// Delete removes a todo permanently. Reports gorm.ErrRecordNotFound when no
// row matched so the caller can map it to a 404.
func (r *gormTodoRepository) Delete(id uint) error {
	result := r.db.Delete(&domain.Todo{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
