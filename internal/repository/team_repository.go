package repository

import (
	"github.com/yamato-h/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// CreateWithAdmin creates a team and its first admin member atomically
func (r *GormTeamRepository) CreateWithAdmin(team *models.Team, member *models.TeamMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}

		member.TeamID = team.ID
		return tx.Create(member).Error
	})
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(id uint64) (*models.Team, error) {
	var team models.Team
	if err := r.db.First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// AddMember adds a member to a team
func (r *GormTeamRepository) AddMember(member *models.TeamMember) error {
	return r.db.Create(member).Error
}

// FindMember finds a membership by team and user
func (r *GormTeamRepository) FindMember(teamID, userID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindMemberByID finds a membership row by its own ID
func (r *GormTeamRepository) FindMemberByID(memberID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.First(&member, memberID).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindAcceptedMemberByEmail finds an accepted membership by team and email
func (r *GormTeamRepository) FindAcceptedMemberByEmail(teamID uint64, email string) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.Where("team_id = ? AND email = ? AND status = ?", teamID, email, models.MemberStatusAccepted).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateMemberRole changes a member's role
func (r *GormTeamRepository) UpdateMemberRole(memberID uint64, role models.TeamRole) error {
	return r.db.Model(&models.TeamMember{}).
		Where("id = ?", memberID).
		Update("role", role).Error
}

// RemoveMemberWithInvitations deletes the membership and any invitation rows
// for that email in the team, so a later re-invite starts clean.
func (r *GormTeamRepository) RemoveMemberWithInvitations(member *models.TeamMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.TeamMember{}, member.ID).Error; err != nil {
			return err
		}

		return tx.Where("team_id = ? AND email = ?", member.TeamID, member.Email).
			Delete(&models.Invitation{}).Error
	})
}

// ListMembershipsByUserID lists a user's accepted memberships with teams
func (r *GormTeamRepository) ListMembershipsByUserID(userID uint64) ([]models.TeamMember, error) {
	var memberships []models.TeamMember
	if err := r.db.Preload("Team").
		Where("user_id = ? AND status = ?", userID, models.MemberStatusAccepted).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListMembers lists all members of a team
func (r *GormTeamRepository) ListMembers(teamID uint64) ([]models.TeamMember, error) {
	var members []models.TeamMember
	if err := r.db.Where("team_id = ?", teamID).
		Order("id").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
