package repository

import (
	"github.com/yamato-h/project-tracker-api/internal/models"
	"github.com/yamato-h/project-tracker-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// CreateWithDefaultTeam creates a user, their default team, and the admin
	// membership within a single transaction, and records the team as the
	// user's default.
	CreateWithDefaultTeam(user *models.User, team *models.Team, member *models.TeamMember) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// Update updates a user
	Update(user *models.User) error
}

// TeamRepository defines the interface for team and membership data access
type TeamRepository interface {
	// CreateWithAdmin creates a team and its first admin member within a
	// single transaction.
	CreateWithAdmin(team *models.Team, member *models.TeamMember) error

	// FindByID finds a team by ID
	FindByID(id uint64) (*models.Team, error)

	// AddMember adds a member to a team
	AddMember(member *models.TeamMember) error

	// FindMember finds a membership by team and user
	FindMember(teamID, userID uint64) (*models.TeamMember, error)

	// FindMemberByID finds a membership row by its own ID
	FindMemberByID(memberID uint64) (*models.TeamMember, error)

	// FindAcceptedMemberByEmail finds an accepted membership by team and email
	FindAcceptedMemberByEmail(teamID uint64, email string) (*models.TeamMember, error)

	// UpdateMemberRole changes a member's role
	UpdateMemberRole(memberID uint64, role models.TeamRole) error

	// RemoveMemberWithInvitations deletes the membership row and every
	// invitation row for that member's email in the team, atomically.
	RemoveMemberWithInvitations(member *models.TeamMember) error

	// ListMembershipsByUserID lists a user's accepted memberships with teams
	ListMembershipsByUserID(userID uint64) ([]models.TeamMember, error)

	// ListMembers lists all members of a team
	ListMembers(teamID uint64) ([]models.TeamMember, error)
}

// InvitationRepository defines the interface for invitation data access
type InvitationRepository interface {
	// Create creates a new invitation
	Create(invitation *models.Invitation) error

	// FindByID finds an invitation by ID with its team
	FindByID(id uint64) (*models.Invitation, error)

	// ListPendingByEmail lists pending invitations addressed to an email
	ListPendingByEmail(email string) ([]models.Invitation, error)

	// Accept inserts the membership row and marks the invitation accepted in
	// a single transaction, so the invitation is consumed exactly once.
	Accept(invitation *models.Invitation, member *models.TeamMember) error

	// Delete deletes an invitation row
	Delete(id uint64) error
}

// ProjectFilter holds options for listing projects
type ProjectFilter struct {
	TeamID     uint64
	Pagination utils.PaginationParams
}

// ProjectRepository defines the interface for project hierarchy data access
type ProjectRepository interface {
	// CreateWithDefaults creates a project, its default feature, and the
	// default task within a single transaction.
	CreateWithDefaults(project *models.Project, feature *models.Feature, task *models.Task) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// FindBySlug finds a project by slug with features and tasks preloaded
	// in display order
	FindBySlug(slug string) (*models.Project, error)

	// List retrieves a team's projects with pagination
	List(filter ProjectFilter) ([]models.Project, int64, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete removes a project and its features and tasks in one transaction
	Delete(id uint64) error

	// FindFeature finds a feature by ID with its tasks
	FindFeature(id uint64) (*models.Feature, error)

	// CreateFeature inserts a feature at the next order slot together with
	// its default task, computing max(order)+1 inside the transaction.
	CreateFeature(feature *models.Feature, defaultTask *models.Task) error

	// DuplicateFeature copies a feature and all of its tasks in one
	// transaction and returns the new feature with tasks loaded.
	DuplicateFeature(src *models.Feature) (*models.Feature, error)

	// DeleteFeature deletes a feature's tasks and then the feature itself in
	// one transaction.
	DeleteFeature(id uint64) error

	// CreateTask inserts a task at the next order slot for its feature.
	CreateTask(task *models.Task) error

	// FindTask finds a task by ID
	FindTask(id uint64) (*models.Task, error)

	// UpdateTask updates a task
	UpdateTask(task *models.Task) error

	// DeleteTask deletes a task
	DeleteTask(id uint64) error
}
