package repository

import (
	"database/sql"

	"github.com/yamato-h/project-tracker-api/internal/database"
	"github.com/yamato-h/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// CreateWithDefaults creates a project with its default feature and task atomically
func (r *GormProjectRepository) CreateWithDefaults(project *models.Project, feature *models.Feature, task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}

		feature.ProjectID = project.ID
		if err := tx.Create(feature).Error; err != nil {
			return err
		}

		task.FeatureID = feature.ID
		return tx.Create(task).Error
	})
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindBySlug finds a project by slug with features and tasks in display order
func (r *GormProjectRepository) FindBySlug(slug string) (*models.Project, error) {
	var project models.Project
	err := r.db.
		Preload("Features", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"order\" ASC")
		}).
		Preload("Features.Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"order\" DESC")
		}).
		Where("slug = ?", slug).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// List retrieves a team's projects with pagination
func (r *GormProjectRepository) List(filter ProjectFilter) ([]models.Project, int64, error) {
	query := r.db.Model(&models.Project{}).Where("team_id = ?", filter.TeamID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	if err := query.
		Order("created_at DESC").
		Scopes(database.Paginate(filter.Pagination)).
		Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// Delete removes a project and its features and tasks in one transaction
func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		featureIDs := tx.Model(&models.Feature{}).
			Select("id").
			Where("project_id = ?", id)

		if err := tx.Where("feature_id IN (?)", featureIDs).
			Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", id).
			Delete(&models.Feature{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}

// FindFeature finds a feature by ID with its tasks
func (r *GormProjectRepository) FindFeature(id uint64) (*models.Feature, error) {
	var feature models.Feature
	err := r.db.
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"order\" DESC")
		}).
		First(&feature, id).Error
	if err != nil {
		return nil, err
	}
	return &feature, nil
}

// CreateFeature inserts a feature at the next order slot with a default task.
// The max(order) read runs inside the same transaction as the insert, so
// concurrent creators cannot claim the same slot.
func (r *GormProjectRepository) CreateFeature(feature *models.Feature, defaultTask *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		order, err := nextOrder(tx.Model(&models.Feature{}).Where("project_id = ?", feature.ProjectID))
		if err != nil {
			return err
		}
		feature.Order = order

		if err := tx.Create(feature).Error; err != nil {
			return err
		}

		defaultTask.FeatureID = feature.ID
		return tx.Create(defaultTask).Error
	})
}

// DuplicateFeature copies a feature and its tasks atomically
func (r *GormProjectRepository) DuplicateFeature(src *models.Feature) (*models.Feature, error) {
	copyFeature := models.Feature{
		Name:      src.Name + " (Copy)",
		ProjectID: src.ProjectID,
		Order:     src.Order,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&copyFeature).Error; err != nil {
			return err
		}

		if len(src.Tasks) == 0 {
			return nil
		}

		copies := make([]models.Task, len(src.Tasks))
		for i, task := range src.Tasks {
			copies[i] = models.Task{
				Name:      task.Name,
				FeatureID: copyFeature.ID,
				Progress:  task.Progress,
				Order:     task.Order,
			}
		}

		return tx.Create(&copies).Error
	})
	if err != nil {
		return nil, err
	}

	// Re-fetch so the caller gets a consistent snapshot with tasks loaded
	return r.FindFeature(copyFeature.ID)
}

// DeleteFeature deletes a feature's tasks and then the feature itself
func (r *GormProjectRepository) DeleteFeature(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("feature_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Feature{}, id).Error
	})
}

// CreateTask inserts a task at the next order slot for its feature
func (r *GormProjectRepository) CreateTask(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		order, err := nextOrder(tx.Model(&models.Task{}).Where("feature_id = ?", task.FeatureID))
		if err != nil {
			return err
		}
		task.Order = order

		return tx.Create(task).Error
	})
}

// FindTask finds a task by ID
func (r *GormProjectRepository) FindTask(id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask updates a task
func (r *GormProjectRepository) UpdateTask(task *models.Task) error {
	return r.db.Save(task).Error
}

// DeleteTask deletes a task
func (r *GormProjectRepository) DeleteTask(id uint64) error {
	return r.db.Delete(&models.Task{}, id).Error
}

// nextOrder returns max(order)+1 for the scoped sibling set, or 1 when the
// set is empty. The slot is derived from the current maximum, not a running
// counter; order is a sort hint, not a key.
func nextOrder(query *gorm.DB) (int, error) {
	var max sql.NullInt64
	if err := query.Select("MAX(\"order\")").Scan(&max).Error; err != nil {
		return 0, err
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}
