package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yamato-h/project-tracker-api/internal/models"
	"github.com/yamato-h/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTeamNotFound         = errors.New("team not found")
	ErrInvalidTeamName      = errors.New("team name cannot be empty")
	ErrTeamMemberNotFound   = errors.New("team member not found")
	ErrNotTeamMember        = errors.New("user is not a member of this team")
	ErrRoleChangeNotAllowed = errors.New("not allowed to change this member's role")
	ErrAdminRequired        = errors.New("only team admins can perform this action")
	ErrCannotRemoveYourself = errors.New("cannot remove yourself from the team")
)

// TeamService provides business logic for team and membership operations.
// Every mutating operation re-reads the actor's membership row, so role
// checks reflect the store at call time rather than a cached session.
type TeamService struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
}

// NewTeamService creates a new TeamService.
func NewTeamService(teamRepo repository.TeamRepository, userRepo repository.UserRepository) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
	}
}

// CreateTeam creates a team and makes the creator its admin. Team names are
// not unique; duplicates are allowed.
func (s *TeamService) CreateTeam(name string, creatorID uint64) (*models.Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidTeamName
	}

	creator, err := s.userRepo.FindByID(creatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find creator: %w", err)
	}

	team := &models.Team{Name: name}
	member := &models.TeamMember{
		UserID: creator.ID,
		Email:  creator.Email,
		Role:   models.RoleAdmin,
		Status: models.MemberStatusAccepted,
	}

	if err := s.teamRepo.CreateWithAdmin(team, member); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	return team, nil
}

// ListTeamsForUser returns the teams where the user has an accepted membership.
func (s *TeamService) ListTeamsForUser(userID uint64) ([]models.TeamMember, error) {
	memberships, err := s.teamRepo.ListMembershipsByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return memberships, nil
}

// GetTeamWithMembers returns a team and all of its members.
func (s *TeamService) GetTeamWithMembers(teamID uint64) (*models.Team, []models.TeamMember, error) {
	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTeamNotFound
		}
		return nil, nil, fmt.Errorf("failed to find team: %w", err)
	}

	members, err := s.teamRepo.ListMembers(teamID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list team members: %w", err)
	}

	return team, members, nil
}

// ChangeMemberRole updates a member's role. Admins may change anyone;
// editors may change anyone except members who are currently admins;
// viewers may change nobody.
func (s *TeamService) ChangeMemberRole(teamID, actorID, memberID uint64, newRole models.TeamRole) (*models.TeamMember, error) {
	actor, err := s.acceptedMember(teamID, actorID)
	if err != nil {
		return nil, err
	}

	target, err := s.teamRepo.FindMemberByID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamMemberNotFound
		}
		return nil, fmt.Errorf("failed to find team member: %w", err)
	}
	if target.TeamID != teamID {
		return nil, ErrTeamMemberNotFound
	}

	if !actor.Role.CanChangeRoleOf(target.Role) {
		return nil, ErrRoleChangeNotAllowed
	}

	if err := s.teamRepo.UpdateMemberRole(target.ID, newRole); err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	target.Role = newRole
	return target, nil
}

// RemoveMember removes a member from the team and deletes any invitation
// rows for that member's email in the team, preventing stale re-invites.
// Admin-only.
func (s *TeamService) RemoveMember(teamID, actorID, memberID uint64) error {
	actor, err := s.acceptedMember(teamID, actorID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleAdmin {
		return ErrAdminRequired
	}

	target, err := s.teamRepo.FindMemberByID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamMemberNotFound
		}
		return fmt.Errorf("failed to find team member: %w", err)
	}
	if target.TeamID != teamID {
		return ErrTeamMemberNotFound
	}
	if target.UserID == actorID {
		return ErrCannotRemoveYourself
	}

	if err := s.teamRepo.RemoveMemberWithInvitations(target); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

func (s *TeamService) acceptedMember(teamID, userID uint64) (*models.TeamMember, error) {
	member, err := s.teamRepo.FindMember(teamID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotTeamMember
		}
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}
	if member.Status != models.MemberStatusAccepted {
		return nil, ErrNotTeamMember
	}
	return member, nil
}
