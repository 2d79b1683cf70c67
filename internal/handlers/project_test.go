package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yamato-h/project-tracker-api/internal/database"
	"github.com/yamato-h/project-tracker-api/internal/models"
	"github.com/yamato-h/project-tracker-api/internal/repository"
	"github.com/yamato-h/project-tracker-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type projectTestEnv struct {
	db                *gorm.DB
	handler           *ProjectHandler
	projectService    *services.ProjectService
	authService       *services.AuthService
	invitationService *services.InvitationService
}

func setupProjectTestEnv(t *testing.T) projectTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Invitation{},
		&models.Project{},
		&models.Feature{},
		&models.Task{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	projectRepo := repository.NewProjectRepository(db)

	invitationService := services.NewInvitationService(invitationRepo, teamRepo, userRepo, &recordingMailer{}, "http://localhost:3000")
	authService := services.NewAuthService(userRepo, teamRepo, invitationService)
	projectService := services.NewProjectService(projectRepo, teamRepo)
	handler := NewProjectHandler(projectService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return projectTestEnv{
		db:                db,
		handler:           handler,
		projectService:    projectService,
		authService:       authService,
		invitationService: invitationService,
	}
}

func (env projectTestEnv) signup(t *testing.T, email string) *models.User {
	t.Helper()

	user, err := env.authService.Signup(services.SignupInput{
		Email:    email,
		Password: "supersecret",
	})
	require.NoError(t, err)
	return user
}

func (env projectTestEnv) join(t *testing.T, teamID uint64, inviter, invitee *models.User, role models.TeamRole) {
	t.Helper()

	invitation, err := env.invitationService.Invite(services.InviteInput{
		TeamID:  teamID,
		ActorID: inviter.ID,
		Email:   invitee.Email,
		Role:    role,
	})
	require.NoError(t, err)

	_, err = env.invitationService.Accept(invitation.ID, invitee.ID)
	require.NoError(t, err)
}

func (env projectTestEnv) createProject(t *testing.T, name string, user *models.User) *models.Project {
	t.Helper()

	project, err := env.projectService.CreateProject(services.CreateProjectInput{
		Name:      name,
		TeamID:    *user.DefaultTeamID,
		CreatorID: user.ID,
	})
	require.NoError(t, err)
	return project
}

func TestProjectHandler_CreateProject(t *testing.T) {
	env := setupProjectTestEnv(t)
	user := env.signup(t, "owner@example.com")

	r := gin.New()
	r.POST("/api/projects", authAs(user.ID), env.handler.CreateProject)

	body, err := json.Marshal(map[string]interface{}{
		"name":   "My Cool Project!",
		"teamId": *user.DefaultTeamID,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "My Cool Project!", response.Name)
	require.Equal(t, "my-cool-project", response.Slug)

	var features []models.Feature
	require.NoError(t, env.db.Where("project_id = ?", response.ID).Find(&features).Error)
	require.Len(t, features, 1)
	require.Equal(t, "Default Feature", features[0].Name)
	require.Equal(t, 0, features[0].Order)

	var tasks []models.Task
	require.NoError(t, env.db.Where("feature_id = ?", features[0].ID).Find(&tasks).Error)
	require.Len(t, tasks, 1)
	require.Equal(t, "Default Task", tasks[0].Name)
	require.Equal(t, 0, tasks[0].Progress)
}

func TestProjectHandler_CreateProject_SlugTaken(t *testing.T) {
	env := setupProjectTestEnv(t)
	user := env.signup(t, "owner@example.com")
	env.createProject(t, "Same Name", user)

	r := gin.New()
	r.POST("/api/projects", authAs(user.ID), env.handler.CreateProject)

	body, err := json.Marshal(map[string]interface{}{
		"name":   "Same  Name!!",
		"teamId": *user.DefaultTeamID,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestProjectHandler_CreateProject_ViewerForbidden(t *testing.T) {
	env := setupProjectTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	viewer := env.signup(t, "viewer@example.com")
	env.join(t, *owner.DefaultTeamID, owner, viewer, models.RoleViewer)

	r := gin.New()
	r.POST("/api/projects", authAs(viewer.ID), env.handler.CreateProject)

	body, err := json.Marshal(map[string]interface{}{
		"name":   "Viewer Project",
		"teamId": *owner.DefaultTeamID,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestProjectHandler_GetProjectBySlug(t *testing.T) {
	env := setupProjectTestEnv(t)
	user := env.signup(t, "owner@example.com")
	project := env.createProject(t, "Tracker", user)

	_, err := env.projectService.AddFeature(project.ID, user.ID, "Search")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/api/projects/:slug", authAs(user.ID), env.handler.GetProjectBySlug)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/tracker", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Slug     string `json:"slug"`
		Progress int    `json:"progress"`
		Features []struct {
			Name  string `json:"name"`
			Order int    `json:"order"`
			Tasks []struct {
				Name     string `json:"name"`
				Progress int    `json:"progress"`
			} `json:"tasks"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "tracker", response.Slug)
	require.Equal(t, 0, response.Progress)
	require.Len(t, response.Features, 2)
	require.Equal(t, "Default Feature", response.Features[0].Name)
	require.Equal(t, "Search", response.Features[1].Name)
	require.Equal(t, 1, response.Features[1].Order)
	require.Len(t, response.Features[1].Tasks, 1)
}

func TestProjectHandler_GetProjectBySlug_NotMember(t *testing.T) {
	env := setupProjectTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	outsider := env.signup(t, "outsider@example.com")
	env.createProject(t, "Hidden", owner)

	r := gin.New()
	r.GET("/api/projects/:slug", authAs(outsider.ID), env.handler.GetProjectBySlug)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/hidden", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	// Team projects read as 404 for outsiders
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectHandler_GetProjectBySlug_PublicVisibleToOutsiders(t *testing.T) {
	env := setupProjectTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	outsider := env.signup(t, "outsider@example.com")
	project := env.createProject(t, "Open Source", owner)

	err := env.db.Model(&models.Project{}).
		Where("id = ?", project.ID).
		Update("visibility", models.VisibilityPublic).Error
	require.NoError(t, err)

	r := gin.New()
	r.GET("/api/projects/:slug", authAs(outsider.ID), env.handler.GetProjectBySlug)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/open-source", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestProjectHandler_ListProjects(t *testing.T) {
	env := setupProjectTestEnv(t)
	user := env.signup(t, "owner@example.com")
	env.createProject(t, "First", user)
	env.createProject(t, "Second", user)

	r := gin.New()
	r.GET("/api/projects", authAs(user.ID), env.handler.ListProjects)

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/projects?teamId=%d", *user.DefaultTeamID), nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Projects []struct {
			Slug string `json:"slug"`
		} `json:"projects"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Projects, 2)
	require.EqualValues(t, 2, response.Pagination.Total)
}

func TestProjectHandler_AddFeature_OrderProgression(t *testing.T) {
	env := setupProjectTestEnv(t)
	user := env.signup(t, "owner@example.com")
	project := env.createProject(t, "Tracker", user)

	r := gin.New()
	r.POST("/api/projects/:id/features", authAs(user.ID), env.handler.AddFeature)

	addFeature := func(name string) models.Feature {
		body, err := json.Marshal(map[string]string{"name": name})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost,
			fmt.Sprintf("/api/projects/%d/features", project.ID), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code)

		var feature models.Feature
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feature))
		return feature
	}

	// The default feature occupies order 0, so new features start at 1
	first := addFeature("Search")
	require.Equal(t, 1, first.Order)

	second := addFeature("Filters")
	require.Equal(t, 2, second.Order)

	// Every new feature gets a starter task
	var tasks []models.Task
	require.NoError(t, env.db.Where("feature_id = ?", second.ID).Find(&tasks).Error)
	require.Len(t, tasks, 1)
	require.Equal(t, "default task", tasks[0].Name)

	// Deleting the feature with the highest order frees its slot
	require.NoError(t, env.projectService.DeleteFeature(second.ID, user.ID))

	third := addFeature("Exports")
	require.Equal(t, 2, third.Order)
}

func TestProjectHandler_DuplicateFeature(t *testing.T) {
	env := setupProjectTestEnv(t)
	user := env.signup(t, "owner@example.com")
	project := env.createProject(t, "Tracker", user)

	feature, err := env.projectService.AddFeature(project.ID, user.ID, "Search")
	require.NoError(t, err)

	_, err = env.projectService.AddTask(feature.ID, user.ID, "Index documents")
	require.NoError(t, err)

	r := gin.New()
	r.POST("/api/features/:id/duplicate", authAs(user.ID), env.handler.DuplicateFeature)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/features/%d/duplicate", feature.ID), nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		ID    uint64 `json:"id"`
		Name  string `json:"name"`
		Order int    `json:"order"`
		Tasks []struct {
			Name string `json:"name"`
		} `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Search (Copy)", response.Name)
	require.Equal(t, feature.Order, response.Order)
	require.Len(t, response.Tasks, 2)

	// The source feature and its tasks are untouched
	var sourceTasks []models.Task
	require.NoError(t, env.db.Where("feature_id = ?", feature.ID).Find(&sourceTasks).Error)
	require.Len(t, sourceTasks, 2)
}

func TestProjectHandler_UpdateTaskProgress_Toggle(t *testing.T) {
	env := setupProjectTestEnv(t)
	user := env.signup(t, "owner@example.com")
	project := env.createProject(t, "Tracker", user)

	feature, err := env.projectService.AddFeature(project.ID, user.ID, "Search")
	require.NoError(t, err)
	task, err := env.projectService.AddTask(feature.ID, user.ID, "Index documents")
	require.NoError(t, err)

	r := gin.New()
	r.PATCH("/api/tasks/:id/progress", authAs(user.ID), env.handler.UpdateTaskProgress)

	setProgress := func(value int) (*httptest.ResponseRecorder, int) {
		body, err := json.Marshal(map[string]int{"progress": value})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPatch,
			fmt.Sprintf("/api/tasks/%d/progress", task.ID), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		var response struct {
			Progress int `json:"progress"`
		}
		if w.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		}
		return w, response.Progress
	}

	w, progress := setProgress(60)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 60, progress)

	// Clicking the same step again resets to zero
	w, progress = setProgress(60)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, progress)

	w, progress = setProgress(80)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 80, progress)

	w, _ = setProgress(45)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var stored models.Task
	require.NoError(t, env.db.First(&stored, task.ID).Error)
	require.Equal(t, 80, stored.Progress)
}

func TestProjectHandler_ProjectProgressAggregation(t *testing.T) {
	env := setupProjectTestEnv(t)
	user := env.signup(t, "owner@example.com")
	project := env.createProject(t, "Tracker", user)

	feature, err := env.projectService.AddFeature(project.ID, user.ID, "Search")
	require.NoError(t, err)
	task, err := env.projectService.AddTask(feature.ID, user.ID, "Index documents")
	require.NoError(t, err)

	_, err = env.projectService.UpdateTaskProgress(task.ID, user.ID, 100)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/api/projects/:slug", authAs(user.ID), env.handler.GetProjectBySlug)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/tracker", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Progress int `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	// Three tasks at 0, 0, 100 average to 33
	require.Equal(t, 33, response.Progress)
}

func TestProjectHandler_DeleteProject(t *testing.T) {
	env := setupProjectTestEnv(t)
	user := env.signup(t, "owner@example.com")
	project := env.createProject(t, "Tracker", user)

	r := gin.New()
	r.DELETE("/api/projects/:id", authAs(user.ID), env.handler.DeleteProject)

	req := httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/api/projects/%d", project.ID), nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var featureCount, taskCount int64
	require.NoError(t, env.db.Model(&models.Feature{}).Where("project_id = ?", project.ID).Count(&featureCount).Error)
	require.Zero(t, featureCount)
	require.NoError(t, env.db.Model(&models.Task{}).Count(&taskCount).Error)
	require.Zero(t, taskCount)
}

func TestProjectHandler_DeleteProject_EditorForbidden(t *testing.T) {
	env := setupProjectTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	editor := env.signup(t, "editor@example.com")
	env.join(t, *owner.DefaultTeamID, owner, editor, models.RoleEditor)
	project := env.createProject(t, "Tracker", owner)

	r := gin.New()
	r.DELETE("/api/projects/:id", authAs(editor.ID), env.handler.DeleteProject)

	req := httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/api/projects/%d", project.ID), nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.NoError(t, env.db.First(&models.Project{}, project.ID).Error)
}

func TestProjectHandler_RenameProject_KeepsSlug(t *testing.T) {
	env := setupProjectTestEnv(t)
	user := env.signup(t, "owner@example.com")
	project := env.createProject(t, "Tracker", user)

	r := gin.New()
	r.PATCH("/api/projects/:id", authAs(user.ID), env.handler.RenameProject)

	body, err := json.Marshal(map[string]string{"name": "Tracker v2"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/api/projects/%d", project.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Project
	require.NoError(t, env.db.First(&stored, project.ID).Error)
	require.Equal(t, "Tracker v2", stored.Name)
	require.Equal(t, "tracker", stored.Slug)
}
