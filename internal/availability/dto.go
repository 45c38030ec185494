// AngelaMos | 2026
// dto.go

package availability

import (
	"time"
)

type CreateSlotRequest struct {
	DayOfWeek string `json:"day_of_week" validate:"required"`
	StartTime string `json:"start_time"  validate:"required"`
	EndTime   string `json:"end_time"    validate:"required"`
	Modality  string `json:"modality"`
}

type UpdateSlotRequest struct {
	DayOfWeek *string `json:"day_of_week"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Modality  *string `json:"modality"`
	Enabled   *bool   `json:"enabled"`
}

type SlotResponse struct {
	ID           string    `json:"id"`
	ProgrammerID string    `json:"programmer_id"`
	DayOfWeek    Day       `json:"day_of_week"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Modality     Modality  `json:"modality"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r CreateSlotRequest) toInput() CreateInput {
	return CreateInput{
		Day:       r.DayOfWeek,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Modality:  r.Modality,
	}
}

func (r UpdateSlotRequest) toInput() UpdateInput {
	return UpdateInput{
		Day:       r.DayOfWeek,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Modality:  r.Modality,
		Enabled:   r.Enabled,
	}
}

func ToSlotResponse(s *Slot) SlotResponse {
	return SlotResponse{
		ID:           s.ID,
		ProgrammerID: s.ProgrammerID,
		DayOfWeek:    s.Day,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		Modality:     s.Modality,
		Enabled:      s.Enabled,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func ToSlotResponseList(slots []Slot) []SlotResponse {
	out := make([]SlotResponse, len(slots))
	for i := range slots {
		out[i] = ToSlotResponse(&slots[i])
	}
	return out
}
