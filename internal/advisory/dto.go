// AngelaMos | 2026
// dto.go

package advisory

import (
	"time"
)

type CreateAdvisoryRequest struct {
	ProgrammerID string `json:"programmer_id" validate:"required"`
	Date         string `json:"date"          validate:"required"`
	Time         string `json:"time"          validate:"required"`
	Comment      string `json:"comment"       validate:"required"`
}

type RespondRequest struct {
	Decision        string `json:"decision"`
	ResponseMessage string `json:"response_message"`
}

type AdvisoryResponse struct {
	ID              string     `json:"id"`
	ProgrammerID    string     `json:"programmer_id"`
	ClientID        string     `json:"client_id"`
	Date            string     `json:"date"`
	Time            string     `json:"time"`
	Comment         string     `json:"comment"`
	Status          Status     `json:"status"`
	ResponseMessage *string    `json:"response_message,omitempty"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func ToAdvisoryResponse(a *Advisory) AdvisoryResponse {
	return AdvisoryResponse{
		ID:              a.ID,
		ProgrammerID:    a.ProgrammerID,
		ClientID:        a.ClientID,
		Date:            a.Date.Format(DateLayout),
		Time:            a.Time,
		Comment:         a.Comment,
		Status:          a.Status,
		ResponseMessage: a.ResponseMsg,
		RespondedAt:     a.RespondedAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func ToAdvisoryResponseList(advisories []Advisory) []AdvisoryResponse {
	out := make([]AdvisoryResponse, 0, len(advisories))
	for i := range advisories {
		out = append(out, ToAdvisoryResponse(&advisories[i]))
	}
	return out
}
