package dto

import (
	"github.com/yamato-h/project-tracker-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID            uint64  `json:"id"`
	Email         string  `json:"email"`
	DefaultTeamID *uint64 `json:"default_team_id,omitempty"`
}

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:            user.ID,
		Email:         user.Email,
		DefaultTeamID: user.DefaultTeamID,
	}
}

// ToTeamDTO converts a Team model to TeamDTO
func ToTeamDTO(team models.Team) TeamDTO {
	return TeamDTO{
		ID:   team.ID,
		Name: team.Name,
	}
}
