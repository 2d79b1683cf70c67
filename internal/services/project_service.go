package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/yamato-h/project-tracker-api/internal/constants"
	"github.com/yamato-h/project-tracker-api/internal/models"
	"github.com/yamato-h/project-tracker-api/internal/repository"
	"github.com/yamato-h/project-tracker-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound         = errors.New("project not found")
	ErrFeatureNotFound         = errors.New("feature not found")
	ErrTaskNotFound            = errors.New("task not found")
	ErrProjectNameRequired     = errors.New("project name must contain at least one letter or digit")
	ErrProjectSlugTaken        = errors.New("a project with this name already exists")
	ErrFeatureNameRequired     = errors.New("feature name cannot be blank")
	ErrTaskNameRequired        = errors.New("task name cannot be blank")
	ErrInvalidProgress         = errors.New("progress must be one of 0, 20, 40, 60, 80, 100")
	ErrProjectPermissionDenied = errors.New("user does not have permission to modify this project")
)

// ProjectService handles the project -> feature -> task hierarchy. Mutations
// require an accepted editor or admin membership of the owning team, checked
// against the store per call; reads require membership unless the project is
// public.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	teamRepo    repository.TeamRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, teamRepo repository.TeamRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		teamRepo:    teamRepo,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name      string
	TeamID    uint64
	CreatorID uint64
}

// CreateProject creates a project with a derived slug plus one default
// feature and one default task, all in one transaction.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	slug := utils.GenerateSlug(input.Name)
	if slug == "" {
		return nil, ErrProjectNameRequired
	}

	if _, err := s.ensureEditor(input.TeamID, input.CreatorID); err != nil {
		return nil, err
	}

	if _, err := s.projectRepo.FindBySlug(slug); err == nil {
		return nil, ErrProjectSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}

	project := &models.Project{
		Name:       input.Name,
		Slug:       slug,
		TeamID:     input.TeamID,
		CreatorID:  input.CreatorID,
		Visibility: models.VisibilityTeam,
	}
	feature := &models.Feature{
		Name:  "Default Feature",
		Order: 0,
	}
	task := &models.Task{
		Name:     "Default Task",
		Progress: 0,
		Order:    0,
	}

	if err := s.projectRepo.CreateWithDefaults(project, feature, task); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// ListProjects returns a team's projects for an accepted member.
func (s *ProjectService) ListProjects(teamID, userID uint64, pagination utils.PaginationParams) ([]models.Project, int64, error) {
	if _, err := s.acceptedMember(teamID, userID); err != nil {
		return nil, 0, err
	}

	projects, total, err := s.projectRepo.List(repository.ProjectFilter{
		TeamID:     teamID,
		Pagination: pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, total, nil
}

// GetProjectBySlug returns a project with its features and tasks. Team
// projects require membership; public projects do not.
func (s *ProjectService) GetProjectBySlug(slug string, userID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if project.Visibility != models.VisibilityPublic {
		if _, err := s.acceptedMember(project.TeamID, userID); err != nil {
			// Hide team projects from outsiders
			if errors.Is(err, ErrNotTeamMember) {
				return nil, ErrProjectNotFound
			}
			return nil, err
		}
	}

	return project, nil
}

// RenameProject updates a project's name. The slug is left untouched so
// existing links keep working.
func (s *ProjectService) RenameProject(projectID, userID uint64, name string) (*models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrProjectNameRequired
	}

	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ensureEditor(project.TeamID, userID); err != nil {
		return nil, err
	}

	project.Name = name
	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to rename project: %w", err)
	}

	return project, nil
}

// DeleteProject removes a project and everything under it. Admin-only.
func (s *ProjectService) DeleteProject(projectID, userID uint64) error {
	project, err := s.findProject(projectID)
	if err != nil {
		return err
	}

	member, err := s.acceptedMember(project.TeamID, userID)
	if err != nil {
		return err
	}
	if member.Role != models.RoleAdmin {
		return ErrProjectPermissionDenied
	}

	if err := s.projectRepo.Delete(project.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// AddFeature appends a feature at the next order slot with one default task.
func (s *ProjectService) AddFeature(projectID, userID uint64, name string) (*models.Feature, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrFeatureNameRequired
	}

	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ensureEditor(project.TeamID, userID); err != nil {
		return nil, err
	}

	feature := &models.Feature{
		Name:      name,
		ProjectID: project.ID,
	}
	defaultTask := &models.Task{
		Name:     "default task",
		Progress: 0,
		Order:    0,
	}

	if err := s.projectRepo.CreateFeature(feature, defaultTask); err != nil {
		return nil, fmt.Errorf("failed to add feature: %w", err)
	}

	return feature, nil
}

// DuplicateFeature copies a feature and all of its tasks, returning the new
// feature with tasks loaded.
func (s *ProjectService) DuplicateFeature(featureID, userID uint64) (*models.Feature, error) {
	feature, err := s.findFeature(featureID)
	if err != nil {
		return nil, err
	}

	project, err := s.findProject(feature.ProjectID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ensureEditor(project.TeamID, userID); err != nil {
		return nil, err
	}

	duplicate, err := s.projectRepo.DuplicateFeature(feature)
	if err != nil {
		return nil, fmt.Errorf("failed to duplicate feature: %w", err)
	}

	return duplicate, nil
}

// DeleteFeature removes a feature and its tasks.
func (s *ProjectService) DeleteFeature(featureID, userID uint64) error {
	feature, err := s.findFeature(featureID)
	if err != nil {
		return err
	}

	project, err := s.findProject(feature.ProjectID)
	if err != nil {
		return err
	}

	if _, err := s.ensureEditor(project.TeamID, userID); err != nil {
		return err
	}

	if err := s.projectRepo.DeleteFeature(feature.ID); err != nil {
		return fmt.Errorf("failed to delete feature: %w", err)
	}

	return nil
}

// AddTask appends a task to a feature at the next order slot with progress 0.
func (s *ProjectService) AddTask(featureID, userID uint64, name string) (*models.Task, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrTaskNameRequired
	}

	feature, err := s.findFeature(featureID)
	if err != nil {
		return nil, err
	}

	project, err := s.findProject(feature.ProjectID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ensureEditor(project.TeamID, userID); err != nil {
		return nil, err
	}

	task := &models.Task{
		Name:      name,
		FeatureID: feature.ID,
		Progress:  0,
	}

	if err := s.projectRepo.CreateTask(task); err != nil {
		return nil, fmt.Errorf("failed to add task: %w", err)
	}

	return task, nil
}

// UpdateTaskProgress sets a task's progress with toggle semantics: setting
// the value the task already holds resets progress to 0.
func (s *ProjectService) UpdateTaskProgress(taskID, userID uint64, progress int) (*models.Task, error) {
	if !constants.IsValidProgress(progress) {
		return nil, ErrInvalidProgress
	}

	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	feature, err := s.findFeature(task.FeatureID)
	if err != nil {
		return nil, err
	}

	project, err := s.findProject(feature.ProjectID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ensureEditor(project.TeamID, userID); err != nil {
		return nil, err
	}

	if progress == task.Progress {
		task.Progress = 0
	} else {
		task.Progress = progress
	}

	if err := s.projectRepo.UpdateTask(task); err != nil {
		return nil, fmt.Errorf("failed to update task progress: %w", err)
	}

	return task, nil
}

// DeleteTask removes a task.
func (s *ProjectService) DeleteTask(taskID, userID uint64) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}

	feature, err := s.findFeature(task.FeatureID)
	if err != nil {
		return err
	}

	project, err := s.findProject(feature.ProjectID)
	if err != nil {
		return err
	}

	if _, err := s.ensureEditor(project.TeamID, userID); err != nil {
		return err
	}

	if err := s.projectRepo.DeleteTask(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// ProjectProgress is the rounded average of every task's progress across all
// of the project's features, or 0 when there are no tasks. Display-only,
// never persisted.
func ProjectProgress(project *models.Project) int {
	total := 0
	count := 0
	for _, feature := range project.Features {
		for _, task := range feature.Tasks {
			total += task.Progress
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(count)))
}

func (s *ProjectService) findProject(id uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) findFeature(id uint64) (*models.Feature, error) {
	feature, err := s.projectRepo.FindFeature(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeatureNotFound
		}
		return nil, fmt.Errorf("failed to find feature: %w", err)
	}
	return feature, nil
}

func (s *ProjectService) findTask(id uint64) (*models.Task, error) {
	task, err := s.projectRepo.FindTask(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *ProjectService) acceptedMember(teamID, userID uint64) (*models.TeamMember, error) {
	member, err := s.teamRepo.FindMember(teamID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotTeamMember
		}
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}
	if member.Status != models.MemberStatusAccepted {
		return nil, ErrNotTeamMember
	}
	return member, nil
}

func (s *ProjectService) ensureEditor(teamID, userID uint64) (*models.TeamMember, error) {
	member, err := s.acceptedMember(teamID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role != models.RoleAdmin && member.Role != models.RoleEditor {
		return nil, ErrProjectPermissionDenied
	}
	return member, nil
}
