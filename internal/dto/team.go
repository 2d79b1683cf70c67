package dto

import (
	"github.com/yamato-h/project-tracker-api/internal/models"
)

// TeamWithRoleDTO represents a team with the caller's role in it
type TeamWithRoleDTO struct {
	TeamDTO
	Role models.TeamRole `json:"role"`
}

// TeamMemberDTO represents a member in a team
type TeamMemberDTO struct {
	ID     uint64              `json:"id"`
	UserID uint64              `json:"user_id"`
	Email  string              `json:"email"`
	Role   models.TeamRole     `json:"role"`
	Status models.MemberStatus `json:"status"`
}

// TeamDetailDTO represents detailed team information
type TeamDetailDTO struct {
	TeamDTO
	Members  []TeamMemberDTO `json:"members"`
	YourRole models.TeamRole `json:"your_role"`
}

// ToTeamWithRoleDTO converts a membership to a team DTO with role
func ToTeamWithRoleDTO(member models.TeamMember) TeamWithRoleDTO {
	return TeamWithRoleDTO{
		TeamDTO: ToTeamDTO(member.Team),
		Role:    member.Role,
	}
}

// ToTeamMemberDTO converts a member to DTO
func ToTeamMemberDTO(member models.TeamMember) TeamMemberDTO {
	return TeamMemberDTO{
		ID:     member.ID,
		UserID: member.UserID,
		Email:  member.Email,
		Role:   member.Role,
		Status: member.Status,
	}
}

// ToTeamDetailDTO converts a team with members to detailed DTO
func ToTeamDetailDTO(team models.Team, members []models.TeamMember, yourRole models.TeamRole) TeamDetailDTO {
	memberDTOs := make([]TeamMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToTeamMemberDTO(member)
	}

	return TeamDetailDTO{
		TeamDTO:  ToTeamDTO(team),
		Members:  memberDTOs,
		YourRole: yourRole,
	}
}
