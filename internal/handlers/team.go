package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yamato-h/project-tracker-api/internal/dto"
	apierrors "github.com/yamato-h/project-tracker-api/internal/errors"
	"github.com/yamato-h/project-tracker-api/internal/middleware"
	"github.com/yamato-h/project-tracker-api/internal/models"
	"github.com/yamato-h/project-tracker-api/internal/services"
)

// TeamHandler coordinates team and membership HTTP handlers.
type TeamHandler struct {
	teamService *services.TeamService
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// CreateTeam creates a new team with the caller as admin.
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTeamRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.CreateTeam(req.Name, userID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team))
}

// ListTeams returns the teams the caller is an accepted member of.
func (h *TeamHandler) ListTeams(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	memberships, err := h.teamService.ListTeamsForUser(userID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	teams := make([]dto.TeamWithRoleDTO, len(memberships))
	for i, m := range memberships {
		teams[i] = dto.ToTeamWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{
		"teams": teams,
	})
}

// GetTeam returns team details with members and the caller's role.
func (h *TeamHandler) GetTeam(c *gin.Context) {
	// Team and membership are loaded by RequireTeamAccess middleware
	teamInterface, _ := c.Get("team")
	team := teamInterface.(models.Team)

	memberInterface, _ := c.Get("team_member")
	member := memberInterface.(models.TeamMember)

	_, members, err := h.teamService.GetTeamWithMembers(team.ID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDetailDTO(team, members, member.Role))
}

// ChangeMemberRole updates a member's role, subject to the actor's own role.
func (h *TeamHandler) ChangeMemberRole(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	teamInterface, _ := c.Get("team")
	team := teamInterface.(models.Team)

	memberID, err := strconv.ParseUint(c.Param("member_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid member ID")
		return
	}

	type ChangeRoleRequest struct {
		Role string `json:"role" binding:"required,oneof=admin editor viewer"`
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.teamService.ChangeMemberRole(team.ID, userID, memberID, models.TeamRole(req.Role))
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamMemberDTO(*member))
}

// RemoveMember removes a member and their invitation rows from the team.
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	teamInterface, _ := c.Get("team")
	team := teamInterface.(models.Team)

	memberID, err := strconv.ParseUint(c.Param("member_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid member ID")
		return
	}

	if err := h.teamService.RemoveMember(team.ID, userID, memberID); err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

func respondTeamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTeamName):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrCannotRemoveYourself):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrTeamMemberNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotTeamMember),
		errors.Is(err, services.ErrRoleChangeNotAllowed),
		errors.Is(err, services.ErrAdminRequired):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
