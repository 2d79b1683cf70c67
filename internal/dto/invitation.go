package dto

import (
	"github.com/yamato-h/project-tracker-api/internal/models"
)

// InvitationDTO represents a pending invitation joined with its team name
type InvitationDTO struct {
	ID       uint64          `json:"id"`
	TeamID   uint64          `json:"team_id"`
	TeamName string          `json:"team_name"`
	Email    string          `json:"email"`
	Role     models.TeamRole `json:"role"`
}

// ToInvitationDTO converts an invitation to DTO
func ToInvitationDTO(invitation models.Invitation) InvitationDTO {
	return InvitationDTO{
		ID:       invitation.ID,
		TeamID:   invitation.TeamID,
		TeamName: invitation.Team.Name,
		Email:    invitation.Email,
		Role:     invitation.Role,
	}
}

// ToInvitationDTOs converts a slice of invitations
func ToInvitationDTOs(invitations []models.Invitation) []InvitationDTO {
	dtos := make([]InvitationDTO, len(invitations))
	for i, invitation := range invitations {
		dtos[i] = ToInvitationDTO(invitation)
	}
	return dtos
}
