/**
 * @description
 * This file defines the member domain models for the club service. Members are
 * onboarded through a waitlist: an application starts in the 'waitlisted'
 * status and an admin either approves it into 'active' or rejects it.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Member roles, ordered by privilege.
const (
	RoleMember      = "member"
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
)

// Member statuses.
const (
	MemberWaitlisted = "waitlisted"
	MemberActive     = "active"
	MemberRejected   = "rejected"
	MemberInactive   = "inactive"
)

// Member represents a club member record. ClerkUserID links the row to the
// managed auth provider; it is empty until the applicant signs in for the
// first time.
type Member struct {
	ID          uuid.UUID `json:"id"`
	ClerkUserID string    `json:"clerk_user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`   // 'member', 'coordinator', 'admin'
	Status      string    `json:"status"` // 'waitlisted', 'active', 'rejected', 'inactive'
	BeltRank    string    `json:"belt_rank"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MemberApplication is the DTO for incoming membership applications.
type MemberApplication struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	BeltRank string `json:"belt_rank"`
}

// CanManageWorkshops reports whether the member's role allows creating and
// mutating workshops.
func (m *Member) CanManageWorkshops() bool {
	return m.Role == RoleCoordinator || m.Role == RoleAdmin
}
