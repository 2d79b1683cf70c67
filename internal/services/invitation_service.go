package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/yamato-h/project-tracker-api/internal/logger"
	"github.com/yamato-h/project-tracker-api/internal/mailer"
	"github.com/yamato-h/project-tracker-api/internal/models"
	"github.com/yamato-h/project-tracker-api/internal/repository"
	"github.com/yamato-h/project-tracker-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrSelfInvitation         = errors.New("you cannot invite yourself")
	ErrAlreadyTeamMember      = errors.New("user is already a member of this team")
	ErrInvitationNotFound     = errors.New("invitation not found")
	ErrInvitationNotPending   = errors.New("invitation has already been used")
	ErrInvitationNotAddressed = errors.New("invitation is addressed to a different email")
	ErrInvalidInvitationToken = errors.New("invalid or expired invitation link")
	ErrFailedToGenerateToken  = errors.New("failed to generate invitation token")
	ErrInvitationEmailFailed  = errors.New("failed to send invitation email")
)

// InvitationService manages the pending-invitation lifecycle:
// pending -> accepted (membership created) or pending -> deleted (rejected).
type InvitationService struct {
	invitationRepo repository.InvitationRepository
	teamRepo       repository.TeamRepository
	userRepo       repository.UserRepository
	mail           mailer.Mailer
	baseURL        string
}

// NewInvitationService creates a new InvitationService. baseURL is the
// public origin used to build accept links.
func NewInvitationService(
	invitationRepo repository.InvitationRepository,
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	mail mailer.Mailer,
	baseURL string,
) *InvitationService {
	return &InvitationService{
		invitationRepo: invitationRepo,
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		mail:           mail,
		baseURL:        strings.TrimRight(baseURL, "/"),
	}
}

// InviteInput represents a request to invite an email address to a team.
type InviteInput struct {
	TeamID  uint64
	ActorID uint64
	Email   string
	Role    models.TeamRole
}

// Invite creates a pending invitation and emails the accept link. The actor
// must be an accepted member of the team and may not invite themselves or an
// existing accepted member.
func (s *InvitationService) Invite(input InviteInput) (*models.Invitation, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}

	actor, err := s.userRepo.FindByID(input.ActorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find inviter: %w", err)
	}

	if actor.Email == email {
		return nil, ErrSelfInvitation
	}

	membership, err := s.teamRepo.FindMember(input.TeamID, input.ActorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotTeamMember
		}
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}
	if membership.Status != models.MemberStatusAccepted {
		return nil, ErrNotTeamMember
	}

	if _, err := s.teamRepo.FindAcceptedMemberByEmail(input.TeamID, email); err == nil {
		return nil, ErrAlreadyTeamMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing membership: %w", err)
	}

	team, err := s.teamRepo.FindByID(input.TeamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	token, err := utils.GenerateInviteToken()
	if err != nil {
		return nil, ErrFailedToGenerateToken
	}

	invitation := &models.Invitation{
		TeamID: input.TeamID,
		Email:  email,
		Role:   input.Role,
		Status: models.InvitationStatusPending,
		Token:  token,
	}

	if err := s.invitationRepo.Create(invitation); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	acceptURL := fmt.Sprintf("%s/accept-invite?invitationId=%d&token=%s", s.baseURL, invitation.ID, token)
	if err := s.mail.SendInvitation(email, team.Name, string(input.Role), acceptURL); err != nil {
		logger.Error().Err(err).Str("email", email).Uint64("team_id", team.ID).Msg("invitation email delivery failed")
		return nil, ErrInvitationEmailFailed
	}

	logger.Info().Str("email", email).Uint64("team_id", team.ID).Str("role", string(input.Role)).Msg("invitation created")
	return invitation, nil
}

// ListPendingForUser returns pending invitations addressed to the user's email.
func (s *InvitationService) ListPendingForUser(userID uint64) ([]models.Invitation, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	invitations, err := s.invitationRepo.ListPendingByEmail(user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// Accept resolves a pending invitation into an accepted membership. The
// invitation must be addressed to the accepting user's email, the user must
// not already be a member, and the membership insert and status flip happen
// in one transaction so the invitation is consumed exactly once.
func (s *InvitationService) Accept(invitationID, userID uint64) (*models.TeamMember, error) {
	invitation, err := s.findInvitation(invitationID)
	if err != nil {
		return nil, err
	}
	if invitation.Status != models.InvitationStatusPending {
		return nil, ErrInvitationNotPending
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.Email != invitation.Email {
		return nil, ErrInvitationNotAddressed
	}

	if _, err := s.teamRepo.FindMember(invitation.TeamID, userID); err == nil {
		return nil, ErrAlreadyTeamMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing membership: %w", err)
	}

	member := &models.TeamMember{
		TeamID: invitation.TeamID,
		UserID: userID,
		Email:  user.Email,
		Role:   invitation.Role,
		Status: models.MemberStatusAccepted,
	}

	if err := s.invitationRepo.Accept(invitation, member); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotPending
		}
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}

	logger.Info().Uint64("invitation_id", invitation.ID).Uint64("team_id", invitation.TeamID).Uint64("user_id", userID).Msg("invitation accepted")
	return member, nil
}

// Reject deletes a pending invitation. Only the invitee may reject; no
// notification goes back to the inviter.
func (s *InvitationService) Reject(invitationID, userID uint64) error {
	invitation, err := s.findInvitation(invitationID)
	if err != nil {
		return err
	}
	if invitation.Status != models.InvitationStatusPending {
		return ErrInvitationNotPending
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user.Email != invitation.Email {
		return ErrInvitationNotAddressed
	}

	if err := s.invitationRepo.Delete(invitation.ID); err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}

	return nil
}

// GetByToken loads an invitation and verifies the emailed token, for the
// new-user onboarding flow where no session exists yet.
func (s *InvitationService) GetByToken(invitationID uint64, token string) (*models.Invitation, error) {
	invitation, err := s.findInvitation(invitationID)
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(invitation.Token), []byte(token)) != 1 {
		return nil, ErrInvalidInvitationToken
	}
	if invitation.Status != models.InvitationStatusPending {
		return nil, ErrInvitationNotPending
	}

	return invitation, nil
}

func (s *InvitationService) findInvitation(id uint64) (*models.Invitation, error) {
	invitation, err := s.invitationRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	return invitation, nil
}
