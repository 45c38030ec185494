// AngelaMos | 2026
// entity.go

package advisory

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// Status maps a decision to the state it commits.
func (d Decision) Status() (Status, bool) {
	switch d {
	case DecisionApprove:
		return StatusApproved, true
	case DecisionReject:
		return StatusRejected, true
	}
	return "", false
}

type RoleFilter string

const (
	RoleClient     RoleFilter = "CLIENT"
	RoleProgrammer RoleFilter = "PROGRAMMER"
	RoleAny        RoleFilter = "ANY"
)

// ParseRoleFilter accepts any casing; empty input means RoleAny.
func ParseRoleFilter(s string) (RoleFilter, bool) {
	if s == "" {
		return RoleAny, true
	}

	switch f := RoleFilter(strings.ToUpper(strings.TrimSpace(s))); f {
	case RoleClient, RoleProgrammer, RoleAny:
		return f, true
	}
	return "", false
}

type Advisory struct {
	ID           string     `db:"id"`
	ProgrammerID string     `db:"programmer_id"`
	ClientID     string     `db:"client_id"`
	Date         time.Time  `db:"scheduled_date"`
	Time         string     `db:"scheduled_time"`
	Comment      string     `db:"comment"`
	Status       Status     `db:"status"`
	ResponseMsg  *string    `db:"response_msg"`
	RespondedAt  *time.Time `db:"responded_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (a *Advisory) IsParticipant(userID string) bool {
	return userID != "" && (a.ClientID == userID || a.ProgrammerID == userID)
}

func (a *Advisory) IsPending() bool {
	return a.Status == StatusPending
}

// ScheduledAt combines the calendar date and the "HH:MM" time of day in loc.
func (a *Advisory) ScheduledAt(loc *time.Location) (time.Time, error) {
	return scheduleInstant(a.Date.Format(DateLayout), a.Time, loc)
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)
