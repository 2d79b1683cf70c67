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

// InvitationHandler coordinates invitation HTTP handlers.
type InvitationHandler struct {
	invitationService *services.InvitationService
}

// NewInvitationHandler creates a new InvitationHandler.
func NewInvitationHandler(invitationService *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
	}
}

// Invite creates a pending invitation and emails the accept link.
func (h *InvitationHandler) Invite(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type InviteRequest struct {
		Email  string `json:"email" binding:"required,email"`
		TeamID uint64 `json:"teamId" binding:"required"`
		Role   string `json:"role" binding:"required,oneof=admin editor viewer"`
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	_, err := h.invitationService.Invite(services.InviteInput{
		TeamID:  req.TeamID,
		ActorID: userID,
		Email:   req.Email,
		Role:    models.TeamRole(req.Role),
	})
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invitation sent successfully",
	})
}

// ListPending returns pending invitations addressed to the caller.
func (h *InvitationHandler) ListPending(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	invitations, err := h.invitationService.ListPendingForUser(userID)
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invitations": dto.ToInvitationDTOs(invitations),
	})
}

// Accept resolves a pending invitation into a team membership.
func (h *InvitationHandler) Accept(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	invitationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invitation ID")
		return
	}

	member, err := h.invitationService.Accept(invitationID, userID)
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamMemberDTO(*member))
}

// Reject deletes a pending invitation.
func (h *InvitationHandler) Reject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	invitationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invitation ID")
		return
	}

	if err := h.invitationService.Reject(invitationID, userID); err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invitation rejected",
	})
}

func respondInvitationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSelfInvitation),
		errors.Is(err, services.ErrEmailRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotTeamMember),
		errors.Is(err, services.ErrInvitationNotAddressed):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAlreadyTeamMember),
		errors.Is(err, services.ErrInvitationNotPending):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvitationEmailFailed),
		errors.Is(err, services.ErrFailedToGenerateToken):
		apierrors.InternalError(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
