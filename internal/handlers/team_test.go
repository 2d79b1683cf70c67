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
	"github.com/yamato-h/project-tracker-api/internal/middleware"
	"github.com/yamato-h/project-tracker-api/internal/models"
	"github.com/yamato-h/project-tracker-api/internal/repository"
	"github.com/yamato-h/project-tracker-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type teamTestEnv struct {
	db                *gorm.DB
	handler           *TeamHandler
	teamService       *services.TeamService
	authService       *services.AuthService
	invitationService *services.InvitationService
}

func setupTeamTestEnv(t *testing.T) teamTestEnv {
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

	invitationService := services.NewInvitationService(invitationRepo, teamRepo, userRepo, &recordingMailer{}, "http://localhost:3000")
	authService := services.NewAuthService(userRepo, teamRepo, invitationService)
	teamService := services.NewTeamService(teamRepo, userRepo)
	handler := NewTeamHandler(teamService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return teamTestEnv{
		db:                db,
		handler:           handler,
		teamService:       teamService,
		authService:       authService,
		invitationService: invitationService,
	}
}

func (env teamTestEnv) signup(t *testing.T, email string) *models.User {
	t.Helper()

	user, err := env.authService.Signup(services.SignupInput{
		Email:    email,
		Password: "supersecret",
	})
	require.NoError(t, err)
	return user
}

// join invites and accepts in one step, returning the new membership row.
func (env teamTestEnv) join(t *testing.T, teamID uint64, inviter, invitee *models.User, role models.TeamRole) *models.TeamMember {
	t.Helper()

	invitation, err := env.invitationService.Invite(services.InviteInput{
		TeamID:  teamID,
		ActorID: inviter.ID,
		Email:   invitee.Email,
		Role:    role,
	})
	require.NoError(t, err)

	member, err := env.invitationService.Accept(invitation.ID, invitee.ID)
	require.NoError(t, err)
	return member
}

func TestTeamHandler_CreateTeam(t *testing.T) {
	env := setupTeamTestEnv(t)
	user := env.signup(t, "owner@example.com")

	r := gin.New()
	r.POST("/api/teams", authAs(user.ID), env.handler.CreateTeam)

	body, err := json.Marshal(map[string]string{"name": "Design Squad"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/teams", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Design Squad", response.Name)

	var member models.TeamMember
	err = env.db.
		Where("team_id = ? AND user_id = ?", response.ID, user.ID).
		First(&member).Error
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, member.Role)
	require.Equal(t, models.MemberStatusAccepted, member.Status)
}

func TestTeamHandler_ListTeams(t *testing.T) {
	env := setupTeamTestEnv(t)
	user := env.signup(t, "owner@example.com")

	_, err := env.teamService.CreateTeam("Second Team", user.ID)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/api/teams", authAs(user.ID), env.handler.ListTeams)

	req := httptest.NewRequest(http.MethodGet, "/api/teams", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Teams []struct {
			Name string `json:"name"`
			Role string `json:"role"`
		} `json:"teams"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Teams, 2)
	for _, team := range response.Teams {
		require.Equal(t, "admin", team.Role)
	}
}

func TestTeamHandler_GetTeam(t *testing.T) {
	env := setupTeamTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	viewer := env.signup(t, "viewer@example.com")
	env.join(t, *owner.DefaultTeamID, owner, viewer, models.RoleViewer)

	r := gin.New()
	r.GET("/api/teams/:id", authAs(viewer.ID), middleware.RequireTeamAccess(), env.handler.GetTeam)

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/teams/%d", *owner.DefaultTeamID), nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Name     string `json:"name"`
		YourRole string `json:"your_role"`
		Members  []struct {
			Email string `json:"email"`
		} `json:"members"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "owner's Team", response.Name)
	require.Equal(t, "viewer", response.YourRole)
	require.Len(t, response.Members, 2)
}

func TestTeamHandler_GetTeam_NotMember(t *testing.T) {
	env := setupTeamTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	outsider := env.signup(t, "outsider@example.com")

	r := gin.New()
	r.GET("/api/teams/:id", authAs(outsider.ID), middleware.RequireTeamAccess(), env.handler.GetTeam)

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/teams/%d", *owner.DefaultTeamID), nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	// Membership failures read as 404 so team existence is not leaked
	require.Equal(t, http.StatusNotFound, w.Code)
}

func changeRole(t *testing.T, r *gin.Engine, teamID, memberID uint64, role string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]string{"role": role})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/api/teams/%d/members/%d", teamID, memberID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	return w
}

func TestTeamHandler_ChangeMemberRole_AdminChangesAnyone(t *testing.T) {
	env := setupTeamTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	editor := env.signup(t, "editor@example.com")
	member := env.join(t, *owner.DefaultTeamID, owner, editor, models.RoleEditor)

	r := gin.New()
	r.PATCH("/api/teams/:id/members/:member_id", authAs(owner.ID), middleware.RequireTeamAccess(), env.handler.ChangeMemberRole)

	w := changeRole(t, r, *owner.DefaultTeamID, member.ID, "viewer")

	require.Equal(t, http.StatusOK, w.Code)

	var stored models.TeamMember
	require.NoError(t, env.db.First(&stored, member.ID).Error)
	require.Equal(t, models.RoleViewer, stored.Role)
}

func TestTeamHandler_ChangeMemberRole_EditorCannotTouchAdmin(t *testing.T) {
	env := setupTeamTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	editor := env.signup(t, "editor@example.com")
	env.join(t, *owner.DefaultTeamID, owner, editor, models.RoleEditor)

	var ownerMember models.TeamMember
	err := env.db.
		Where("team_id = ? AND user_id = ?", *owner.DefaultTeamID, owner.ID).
		First(&ownerMember).Error
	require.NoError(t, err)

	r := gin.New()
	r.PATCH("/api/teams/:id/members/:member_id", authAs(editor.ID), middleware.RequireTeamAccess(), env.handler.ChangeMemberRole)

	w := changeRole(t, r, *owner.DefaultTeamID, ownerMember.ID, "viewer")

	require.Equal(t, http.StatusForbidden, w.Code)

	var stored models.TeamMember
	require.NoError(t, env.db.First(&stored, ownerMember.ID).Error)
	require.Equal(t, models.RoleAdmin, stored.Role)
}

func TestTeamHandler_ChangeMemberRole_ViewerForbidden(t *testing.T) {
	env := setupTeamTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	viewer := env.signup(t, "viewer@example.com")
	editor := env.signup(t, "editor@example.com")
	env.join(t, *owner.DefaultTeamID, owner, viewer, models.RoleViewer)
	editorMember := env.join(t, *owner.DefaultTeamID, owner, editor, models.RoleEditor)

	r := gin.New()
	r.PATCH("/api/teams/:id/members/:member_id", authAs(viewer.ID), middleware.RequireTeamAccess(), env.handler.ChangeMemberRole)

	w := changeRole(t, r, *owner.DefaultTeamID, editorMember.ID, "viewer")

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestTeamHandler_RemoveMember(t *testing.T) {
	env := setupTeamTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	editor := env.signup(t, "editor@example.com")
	member := env.join(t, *owner.DefaultTeamID, owner, editor, models.RoleEditor)

	// A stale invitation for the same email must go away with the member
	_, err := env.invitationService.Invite(services.InviteInput{
		TeamID:  *owner.DefaultTeamID,
		ActorID: owner.ID,
		Email:   "editor2@example.com",
		Role:    models.RoleViewer,
	})
	require.NoError(t, err)

	r := gin.New()
	r.DELETE("/api/teams/:id/members/:member_id", authAs(owner.ID), middleware.RequireTeamAccess(), env.handler.RemoveMember)

	req := httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/api/teams/%d/members/%d", *owner.DefaultTeamID, member.ID), nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	err = env.db.First(&models.TeamMember{}, member.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var invitationCount int64
	err = env.db.Model(&models.Invitation{}).
		Where("team_id = ? AND email = ?", *owner.DefaultTeamID, editor.Email).
		Count(&invitationCount).Error
	require.NoError(t, err)
	require.Zero(t, invitationCount)

	// Unrelated invitations survive
	var otherCount int64
	err = env.db.Model(&models.Invitation{}).
		Where("team_id = ? AND email = ?", *owner.DefaultTeamID, "editor2@example.com").
		Count(&otherCount).Error
	require.NoError(t, err)
	require.EqualValues(t, 1, otherCount)
}

func TestTeamHandler_RemoveMember_NonAdmin(t *testing.T) {
	env := setupTeamTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	editor := env.signup(t, "editor@example.com")
	viewer := env.signup(t, "viewer@example.com")
	env.join(t, *owner.DefaultTeamID, owner, editor, models.RoleEditor)
	viewerMember := env.join(t, *owner.DefaultTeamID, owner, viewer, models.RoleViewer)

	r := gin.New()
	r.DELETE("/api/teams/:id/members/:member_id", authAs(editor.ID), middleware.RequireTeamAccess(), env.handler.RemoveMember)

	req := httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/api/teams/%d/members/%d", *owner.DefaultTeamID, viewerMember.ID), nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.NoError(t, env.db.First(&models.TeamMember{}, viewerMember.ID).Error)
}

func TestTeamHandler_RemoveMember_Self(t *testing.T) {
	env := setupTeamTestEnv(t)
	owner := env.signup(t, "owner@example.com")

	var ownerMember models.TeamMember
	err := env.db.
		Where("team_id = ? AND user_id = ?", *owner.DefaultTeamID, owner.ID).
		First(&ownerMember).Error
	require.NoError(t, err)

	r := gin.New()
	r.DELETE("/api/teams/:id/members/:member_id", authAs(owner.ID), middleware.RequireTeamAccess(), env.handler.RemoveMember)

	req := httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/api/teams/%d/members/%d", *owner.DefaultTeamID, ownerMember.ID), nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
