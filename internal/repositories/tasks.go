package repositories

import (
	"context"

	"todo-api/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

type TaskFilter struct {
	OwnerID uuid.UUID
	Status  models.TaskStatus
	Offset  int
	Limit   int
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	return translate(r.db.WithContext(ctx).Create(task).Error)
}

// FindForOwner never returns another owner's task.
func (r *TaskRepository) FindForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&task).Error
	if err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// List returns one page of the owner's tasks, newest first, and the total
// number of tasks matching the filter.
func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.Task{}).Where("user_id = ?", filter.OwnerID)
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tasks := make([]models.Task, 0)
	if total == 0 || int64(filter.Offset) >= total {
		return tasks, total, nil
	}

	err := scoped().
		Order("created_at DESC").
		Order("id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *TaskRepository) Save(ctx context.Context, task *models.Task) error {
	return translate(r.db.WithContext(ctx).Save(task).Error)
}

func (r *TaskRepository) Delete(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Delete(task).Error
}

// CountByStatus groups the owner's tasks by status.
func (r *TaskRepository) CountByStatus(ctx context.Context, ownerID uuid.UUID) (map[models.TaskStatus]int64, error) {
	var rows []struct {
		Status models.TaskStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", ownerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
