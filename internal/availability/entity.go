// AngelaMos | 2026
// entity.go

package availability

import (
	"time"
)

type Day string

const (
	Monday    Day = "MONDAY"
	Tuesday   Day = "TUESDAY"
	Wednesday Day = "WEDNESDAY"
	Thursday  Day = "THURSDAY"
	Friday    Day = "FRIDAY"
	Saturday  Day = "SATURDAY"
	Sunday    Day = "SUNDAY"
)

// Week lists the days in listing order.
var Week = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func (d Day) Valid() bool {
	for _, w := range Week {
		if d == w {
			return true
		}
	}
	return false
}

type Modality string

const (
	InPerson Modality = "IN_PERSON"
	Virtual  Modality = "VIRTUAL"
	Hybrid   Modality = "HYBRID"
)

func (m Modality) Valid() bool {
	switch m {
	case InPerson, Virtual, Hybrid:
		return true
	}
	return false
}

// Slot is a weekly window in which a programmer says they take advisories.
// Slots are informational; booking does not consult them.
type Slot struct {
	ID           string    `db:"id"`
	ProgrammerID string    `db:"programmer_id"`
	Day          Day       `db:"day_of_week"`
	StartTime    string    `db:"start_time"`
	EndTime      string    `db:"end_time"`
	Modality     Modality  `db:"modality"`
	Enabled      bool      `db:"enabled"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
