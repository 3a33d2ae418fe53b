// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/printhub/internal/app/store/audit"
)

const pageSize = 50

// eventRow is one audit event with resolved names.
type eventRow struct {
	audit.Event
	ActorName  string `json:"actor_name,omitempty"`
	TargetName string `json:"target_name,omitempty"`
}

type listResponse struct {
	Events     []eventRow `json:"events"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
}

type categoryInfo struct {
	Category   string   `json:"category"`
	EventTypes []string `json:"event_types"`
}

// categories lists the event types recorded under each category.
var categories = []categoryInfo{
	{
		Category: audit.CategoryAuth,
		EventTypes: []string{
			audit.EventLoginSuccess,
			audit.EventLoginFailedUserNotFound,
			audit.EventLoginFailedWrongPassword,
			audit.EventLoginFailedUserDisabled,
			audit.EventLogout,
			audit.EventWorkingGroupSwitched,
		},
	},
	{
		Category: audit.CategoryAdmin,
		EventTypes: []string{
			audit.EventWorkingGroupCreated,
			audit.EventWorkingGroupUpdated,
			audit.EventWorkingGroupDeleted,
			audit.EventMemberInvited,
			audit.EventMemberAccepted,
			audit.EventMemberRoleChanged,
			audit.EventMemberRemoved,
			audit.EventDefaultChanged,
			audit.EventRecordCreated,
			audit.EventRecordUpdated,
			audit.EventRecordDeleted,
			audit.EventCategoryPublished,
			audit.EventModerationQueued,
			audit.EventModerationApproved,
			audit.EventModerationRejected,
			audit.EventFeatureFlagSet,
			audit.EventFeatureFlagUnset,
		},
	},
}

func validCategory(c string) bool {
	for _, info := range categories {
		if info.Category == c {
			return true
		}
	}
	return false
}

// parseDay reads a YYYY-MM-DD date in UTC.
func parseDay(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
