package repository

import (
	"github.com/yamato-h/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormInvitationRepository is a GORM implementation of InvitationRepository
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &GormInvitationRepository{db: db}
}

// Create creates a new invitation
func (r *GormInvitationRepository) Create(invitation *models.Invitation) error {
	return r.db.Create(invitation).Error
}

// FindByID finds an invitation by ID with its team
func (r *GormInvitationRepository) FindByID(id uint64) (*models.Invitation, error) {
	var invitation models.Invitation
	if err := r.db.Preload("Team").First(&invitation, id).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// ListPendingByEmail lists pending invitations addressed to an email
func (r *GormInvitationRepository) ListPendingByEmail(email string) ([]models.Invitation, error) {
	var invitations []models.Invitation
	if err := r.db.Preload("Team").
		Where("email = ? AND status = ?", email, models.InvitationStatusPending).
		Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// Accept inserts the membership and flips the invitation to accepted in one
// transaction. The status guard in the UPDATE makes concurrent accepts lose:
// if another request consumed the invitation first, no row matches and the
// whole transaction rolls back.
func (r *GormInvitationRepository) Accept(invitation *models.Invitation, member *models.TeamMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(member).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", invitation.ID, models.InvitationStatusPending).
			Update("status", models.InvitationStatusAccepted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		invitation.Status = models.InvitationStatusAccepted
		return nil
	})
}

// Delete deletes an invitation row
func (r *GormInvitationRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Invitation{}, id).Error
}
