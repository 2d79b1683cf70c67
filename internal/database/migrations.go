package database

import (
	"fmt"

	"github.com/yamato-h/project-tracker-api/internal/logger"
	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Membership lookups on every authorized request
		{"team_members", "idx_team_members_team_id", "team_id"},
		{"team_members", "idx_team_members_user_id", "user_id"},
		{"team_members", "idx_team_members_email", "email"},

		// Pending-invitation listing by invitee email
		{"invitations", "idx_invitations_email_status", "email, status"},
		{"invitations", "idx_invitations_team_id", "team_id"},

		// Hierarchy traversal
		{"projects", "idx_projects_team_id", "team_id"},
		{"features", "idx_features_project_id", "project_id"},
		{"tasks", "idx_tasks_feature_id", "feature_id"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Scan(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logger.Info().Str("index", idx.name).Str("table", idx.table).Msg("created index")
	}

	return nil
}
