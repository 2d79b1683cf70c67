package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yamato-h/project-tracker-api/internal/database"
	"github.com/yamato-h/project-tracker-api/internal/models"
)

// RequireTeamAccess checks that the caller has an accepted membership of the
// team in the :id URL parameter. Role gating for mutations happens in the
// service layer, which re-reads the membership at call time.
func RequireTeamAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		teamIDStr := c.Param("id")
		teamID, err := strconv.ParseUint(teamIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid team ID",
			})
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		var team models.Team
		if err := database.GetDB().First(&team, teamID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Team not found",
			})
			c.Abort()
			return
		}

		var member models.TeamMember
		err = database.GetDB().
			Where("team_id = ? AND user_id = ? AND status = ?", teamID, userID, models.MemberStatusAccepted).
			First(&member).Error
		if err != nil {
			// Return 404 instead of 403 to avoid leaking team existence
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Team not found",
			})
			c.Abort()
			return
		}

		c.Set("team", team)
		c.Set("team_member", member)
		c.Next()
	}
}
