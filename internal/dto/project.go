package dto

import (
	"time"

	"github.com/yamato-h/project-tracker-api/internal/models"
	"github.com/yamato-h/project-tracker-api/internal/utils"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID         uint64                   `json:"id"`
	Name       string                   `json:"name"`
	Slug       string                   `json:"slug"`
	TeamID     uint64                   `json:"team_id"`
	Visibility models.ProjectVisibility `json:"visibility"`
	CreatedAt  time.Time                `json:"created_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Progress int    `json:"progress"`
	Order    int    `json:"order"`
}

// FeatureDTO represents a feature with its tasks
type FeatureDTO struct {
	ID    uint64    `json:"id"`
	Name  string    `json:"name"`
	Order int       `json:"order"`
	Tasks []TaskDTO `json:"tasks"`
}

// ProjectDetailDTO represents a project with its full hierarchy and
// aggregate progress
type ProjectDetailDTO struct {
	ProjectDTO
	Features []FeatureDTO `json:"features"`
	Progress int          `json:"progress"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectDTO             `json:"projects"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:         project.ID,
		Name:       project.Name,
		Slug:       project.Slug,
		TeamID:     project.TeamID,
		Visibility: project.Visibility,
		CreatedAt:  project.CreatedAt,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:       task.ID,
		Name:     task.Name,
		Progress: task.Progress,
		Order:    task.Order,
	}
}

// ToFeatureDTO converts a Feature model with tasks to FeatureDTO
func ToFeatureDTO(feature models.Feature) FeatureDTO {
	tasks := make([]TaskDTO, len(feature.Tasks))
	for i, task := range feature.Tasks {
		tasks[i] = ToTaskDTO(task)
	}

	return FeatureDTO{
		ID:    feature.ID,
		Name:  feature.Name,
		Order: feature.Order,
		Tasks: tasks,
	}
}

// ToProjectDetailDTO converts a project with features to a detailed DTO
func ToProjectDetailDTO(project models.Project, progress int) ProjectDetailDTO {
	features := make([]FeatureDTO, len(project.Features))
	for i, feature := range project.Features {
		features[i] = ToFeatureDTO(feature)
	}

	return ProjectDetailDTO{
		ProjectDTO: ToProjectDTO(project),
		Features:   features,
		Progress:   progress,
	}
}

// ToProjectListResponse converts projects to a paginated list response
func ToProjectListResponse(projects []models.Project, params utils.PaginationParams, total int64) ProjectListResponse {
	items := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectDTO(project)
	}

	return ProjectListResponse{
		Projects: items,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}
