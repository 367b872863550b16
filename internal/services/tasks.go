package services

import (
	"context"
	"errors"
	"math"
	"time"

	"todo-api/internal/models"
	"todo-api/internal/repositories"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

type TaskService interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateTaskInput) (*models.Task, error)
	List(ctx context.Context, ownerID uuid.UUID, query ListTasksQuery) ([]models.Task, *models.PageInfo, error)
	GetByID(ctx context.Context, taskID, ownerID uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, taskID, ownerID uuid.UUID, input UpdateTaskInput) (*models.Task, error)
	Delete(ctx context.Context, taskID, ownerID uuid.UUID) error
	Statistics(ctx context.Context, ownerID uuid.UUID) (*models.TaskStatistics, error)
}

type CreateTaskInput struct {
	Name        string
	Description *string
	Status      *string
}

// UpdateTaskInput fields are applied only when non-nil. An empty
// description clears it.
type UpdateTaskInput struct {
	Name        *string
	Description *string
	Status      *string
}

type ListTasksQuery struct {
	Status  *string
	Page    int
	PerPage int
}

type TaskServiceImpl struct {
	db    *gorm.DB
	users *repositories.UserRepository
	tasks *repositories.TaskRepository
}

func NewTaskService(db *gorm.DB) *TaskServiceImpl {
	return &TaskServiceImpl{
		db:    db,
		users: repositories.NewUserRepository(db),
		tasks: repositories.NewTaskRepository(db),
	}
}

func (s *TaskServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	name, err := validateTaskName(input.Name)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:     uuid.Must(uuid.NewV4()),
		UserID: ownerID,
		Name:   name,
		Status: models.TaskStatusPending,
	}

	if input.Description != nil {
		if task.Description, err = validateTaskDescription(*input.Description); err != nil {
			return nil, err
		}
	}
	if input.Status != nil {
		if task.Status, err = validateTaskStatus(*input.Status); err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.users.WithTx(tx).FindByID(ctx, ownerID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return NotFoundError("user not found")
			}
			return InternalError("failed to load user", err)
		}
		if err := s.tasks.WithTx(tx).Create(ctx, task); err != nil {
			return InternalError("failed to create task", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskServiceImpl) List(ctx context.Context, ownerID uuid.UUID, query ListTasksQuery) ([]models.Task, *models.PageInfo, error) {
	filter := repositories.TaskFilter{OwnerID: ownerID}
	if query.Status != nil {
		status, err := validateTaskStatus(*query.Status)
		if err != nil {
			return nil, nil, err
		}
		filter.Status = status
	}

	page, perPage := normalizePage(query.Page, query.PerPage)
	filter.Offset = (page - 1) * perPage
	filter.Limit = perPage

	tasks, total, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, nil, InternalError("failed to list tasks", err)
	}

	return tasks, newPageInfo(page, perPage, total), nil
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

func newPageInfo(page, perPage int, total int64) *models.PageInfo {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return &models.PageInfo{
		Page:    page,
		Pages:   pages,
		PerPage: perPage,
		Total:   total,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

func (s *TaskServiceImpl) GetByID(ctx context.Context, taskID, ownerID uuid.UUID) (*models.Task, error) {
	return s.find(ctx, s.tasks, taskID, ownerID)
}

func (s *TaskServiceImpl) find(ctx context.Context, repo *repositories.TaskRepository, taskID, ownerID uuid.UUID) (*models.Task, error) {
	task, err := repo.FindForOwner(ctx, taskID, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NotFoundError("task not found")
		}
		return nil, InternalError("failed to load task", err)
	}
	return task, nil
}

func (s *TaskServiceImpl) Update(ctx context.Context, taskID, ownerID uuid.UUID, input UpdateTaskInput) (*models.Task, error) {
	var (
		name        string
		description *string
		status      models.TaskStatus
		err         error
	)

	// Every field is validated before anything is written.
	if input.Name != nil {
		if name, err = validateTaskName(*input.Name); err != nil {
			return nil, err
		}
	}
	if input.Description != nil {
		if description, err = validateTaskDescription(*input.Description); err != nil {
			return nil, err
		}
	}
	if input.Status != nil {
		if status, err = validateTaskStatus(*input.Status); err != nil {
			return nil, err
		}
	}

	var updated *models.Task
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.tasks.WithTx(tx)
		task, err := s.find(ctx, repo, taskID, ownerID)
		if err != nil {
			return err
		}

		if input.Name != nil {
			task.Name = name
		}
		if input.Description != nil {
			task.Description = description
		}
		if input.Status != nil {
			task.Status = status
		}
		task.UpdatedAt = time.Now().UTC()

		if err := repo.Save(ctx, task); err != nil {
			return InternalError("failed to update task", err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *TaskServiceImpl) Delete(ctx context.Context, taskID, ownerID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.tasks.WithTx(tx)
		task, err := s.find(ctx, repo, taskID, ownerID)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, task); err != nil {
			return InternalError("failed to delete task", err)
		}
		return nil
	})
}

func (s *TaskServiceImpl) Statistics(ctx context.Context, ownerID uuid.UUID) (*models.TaskStatistics, error) {
	counts, err := s.tasks.CountByStatus(ctx, ownerID)
	if err != nil {
		return nil, InternalError("failed to count tasks", err)
	}

	stats := &models.TaskStatistics{
		Pending:   counts[models.TaskStatusPending],
		Completed: counts[models.TaskStatusCompleted],
	}
	stats.Total = stats.Pending + stats.Completed
	stats.CompletionRate = completionRate(stats.Completed, stats.Total)
	return stats, nil
}

func completionRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*100*100) / 100
}
