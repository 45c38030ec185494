// AngelaMos | 2026
// lifecycle.go

package advisory

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

var (
	ErrInvalidParticipants = errors.New("invalid participants")
	ErrInvalidSchedule     = errors.New("invalid schedule")
	ErrInvalidState        = errors.New("invalid state")
)

const DefaultMaxMessageLength = 2000

// Rules holds the pure booking rules. It never touches storage, so every
// check can run against a fixed clock.
type Rules struct {
	Location         *time.Location
	MaxMessageLength int
	Now              func() time.Time
}

func (r Rules) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

func (r Rules) maxLen() int {
	if r.MaxMessageLength <= 0 {
		return DefaultMaxMessageLength
	}
	return r.MaxMessageLength
}

func (r Rules) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r Rules) CheckParticipants(clientID, programmerID string) error {
	if clientID == "" || programmerID == "" {
		return fmt.Errorf("request advisory: missing participant: %w", ErrInvalidParticipants)
	}
	if clientID == programmerID {
		return fmt.Errorf("request advisory: client is the programmer: %w", ErrInvalidParticipants)
	}
	return nil
}

// CheckSchedule parses date and clock in the booking time zone and requires
// the instant to be strictly after now. It returns the calendar date at UTC
// midnight and the normalized "HH:MM" clock.
func (r Rules) CheckSchedule(date, clock string) (time.Time, string, error) {
	at, err := scheduleInstant(date, clock, r.location())
	if err != nil {
		return time.Time{}, "", err
	}

	if !at.After(r.now()) {
		return time.Time{}, "", fmt.Errorf(
			"request advisory: %s %s is not in the future: %w",
			date, clock, ErrInvalidSchedule,
		)
	}

	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	return day, at.Format(TimeLayout), nil
}

func (r Rules) NormalizeComment(comment string) (string, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return "", fmt.Errorf("request advisory: %w", core.ValidationError("comment is required"))
	}
	if utf8.RuneCountInString(comment) > r.maxLen() {
		return "", fmt.Errorf("request advisory: %w", core.ValidationError(
			fmt.Sprintf("comment must be at most %d characters", r.maxLen()),
		))
	}
	return comment, nil
}

// Transition validates a response against the current advisory and returns
// the target status and the message to store. Authorization is checked
// before state so that outsiders always see ErrForbidden.
func (r Rules) Transition(
	a *Advisory,
	actingUserID string,
	decision Decision,
	message string,
) (Status, string, error) {
	if a.ProgrammerID != actingUserID {
		return "", "", fmt.Errorf("respond advisory: %w", core.ErrForbidden)
	}

	if !a.IsPending() {
		return "", "", fmt.Errorf(
			"respond advisory: advisory is %s: %w",
			a.Status, ErrInvalidState,
		)
	}

	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > r.maxLen() {
		return "", "", fmt.Errorf("respond advisory: %w", core.ValidationError(
			fmt.Sprintf("response_message must be at most %d characters", r.maxLen()),
		))
	}

	next, ok := decision.Status()
	if !ok {
		return "", "", fmt.Errorf("respond advisory: %w", core.ValidationError(
			"decision must be one of APPROVE, REJECT",
		))
	}

	return next, message, nil
}

func scheduleInstant(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date: %w", core.ValidationError("date must be YYYY-MM-DD"))
	}

	tod, err := time.Parse(TimeLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", core.ValidationError("time must be HH:MM"))
	}

	return time.Date(
		day.Year(), day.Month(), day.Day(),
		tod.Hour(), tod.Minute(), 0, 0,
		loc,
	), nil
}
