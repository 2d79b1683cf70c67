package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yamato-h/project-tracker-api/internal/constants"
	"github.com/yamato-h/project-tracker-api/internal/models"
	"github.com/yamato-h/project-tracker-api/internal/repository"
	"github.com/yamato-h/project-tracker-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrEmailRequired        = errors.New("email is required")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
	ErrFailedToCreateTeam   = errors.New("failed to create team")
	ErrFailedToAddMember    = errors.New("failed to add user to team")
)

// AuthService handles authentication and onboarding business logic.
type AuthService struct {
	userRepo    repository.UserRepository
	teamRepo    repository.TeamRepository
	invitations *InvitationService
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, teamRepo repository.TeamRepository, invitations *InvitationService) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		teamRepo:    teamRepo,
		invitations: invitations,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Email    string
	Password string
}

// Signup creates a new user along with their default team.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	team := &models.Team{
		Name: utils.DefaultTeamName(email),
	}

	member := &models.TeamMember{
		Role:   models.RoleAdmin,
		Status: models.MemberStatusAccepted,
	}

	if err := s.userRepo.CreateWithDefaultTeam(user, team, member); err != nil {
		switch {
		case errors.Is(err, repository.ErrCreateUser):
			return nil, ErrFailedToCreateUser
		case errors.Is(err, repository.ErrCreateTeam):
			return nil, ErrFailedToCreateTeam
		case errors.Is(err, repository.ErrCreateTeamMember):
			return nil, ErrFailedToAddMember
		default:
			return nil, fmt.Errorf("failed to complete signup: %w", err)
		}
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// AcceptInviteSignupInput carries the fields from the emailed accept link
// plus the password chosen by the invitee.
type AcceptInviteSignupInput struct {
	InvitationID uint64
	Token        string
	Password     string
}

// AcceptInviteSignup onboards a user who followed an invitation link without
// having an account: it sets their password, ensures a user row exists for
// the invited email, creates a default team if the user has none, and then
// resolves the invitation. Each step is atomic on its own but the sequence
// is re-entrant rather than transactional: a retry after partial failure
// picks up where the previous attempt stopped.
func (s *AuthService) AcceptInviteSignup(input AcceptInviteSignupInput) (*models.User, error) {
	invitation, err := s.invitations.GetByToken(input.InvitationID, input.Token)
	if err != nil {
		return nil, err
	}

	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user, err := s.userRepo.FindByEmail(invitation.Email)
	switch {
	case err == nil:
		user.PasswordHash = string(hashedPassword)
		if err := s.userRepo.Update(user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &models.User{
			Email:        invitation.Email,
			PasswordHash: string(hashedPassword),
		}
		if err := s.userRepo.Create(user); err != nil {
			return nil, ErrFailedToCreateUser
		}
	default:
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Only create a default team when the user has none, so retries after a
	// mid-flow failure do not pile up duplicate teams.
	if user.DefaultTeamID == nil {
		team := &models.Team{Name: utils.DefaultTeamName(user.Email)}
		member := &models.TeamMember{
			UserID: user.ID,
			Email:  user.Email,
			Role:   models.RoleAdmin,
			Status: models.MemberStatusAccepted,
		}
		if err := s.teamRepo.CreateWithAdmin(team, member); err != nil {
			return nil, ErrFailedToCreateTeam
		}

		user.DefaultTeamID = &team.ID
		if err := s.userRepo.Update(user); err != nil {
			return nil, fmt.Errorf("failed to set default team: %w", err)
		}
	}

	if _, err := s.invitations.Accept(invitation.ID, user.ID); err != nil {
		return nil, err
	}

	return user, nil
}
