// AngelaMos | 2026
// service.go

package availability

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

const clockLayout = "15:04"

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

type CreateInput struct {
	Day       string
	StartTime string
	EndTime   string
	Modality  string
}

// UpdateInput changes only the fields that are set.
type UpdateInput struct {
	Day       *string
	StartTime *string
	EndTime   *string
	Modality  *string
	Enabled   *bool
}

// ListMine returns every slot of the programmer, disabled ones included.
func (s *Service) ListMine(ctx context.Context, programmerID string) ([]Slot, error) {
	return s.repo.ListByProgrammer(ctx, programmerID, false)
}

// ListPublic returns the enabled slots clients may look at.
func (s *Service) ListPublic(ctx context.Context, programmerID string) ([]Slot, error) {
	return s.repo.ListByProgrammer(ctx, programmerID, true)
}

func (s *Service) Create(ctx context.Context, programmerID string, in CreateInput) (*Slot, error) {
	slot := &Slot{
		ID:           uuid.New().String(),
		ProgrammerID: programmerID,
		Enabled:      true,
	}

	var err error
	if slot.Day, err = parseDay(in.Day); err != nil {
		return nil, err
	}
	if slot.Modality, err = parseModality(in.Modality); err != nil {
		return nil, err
	}
	if slot.StartTime, err = parseClock("start_time", in.StartTime); err != nil {
		return nil, err
	}
	if slot.EndTime, err = parseClock("end_time", in.EndTime); err != nil {
		return nil, err
	}
	if err := checkWindow(slot); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("availability slot created",
		"slot_id", slot.ID,
		"programmer_id", programmerID,
		"day", slot.Day,
	)
	return slot, nil
}

func (s *Service) Update(
	ctx context.Context,
	programmerID, slotID string,
	in UpdateInput,
) (*Slot, error) {
	slot, err := s.repo.Get(ctx, programmerID, slotID)
	if err != nil {
		return nil, err
	}

	if in.Day != nil {
		if slot.Day, err = parseDay(*in.Day); err != nil {
			return nil, err
		}
	}
	if in.Modality != nil {
		if slot.Modality, err = parseModality(*in.Modality); err != nil {
			return nil, err
		}
	}
	if in.StartTime != nil {
		if slot.StartTime, err = parseClock("start_time", *in.StartTime); err != nil {
			return nil, err
		}
	}
	if in.EndTime != nil {
		if slot.EndTime, err = parseClock("end_time", *in.EndTime); err != nil {
			return nil, err
		}
	}
	if in.Enabled != nil {
		slot.Enabled = *in.Enabled
	}
	if err := checkWindow(slot); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, storeError(err)
	}
	return slot, nil
}

func (s *Service) Delete(ctx context.Context, programmerID, slotID string) error {
	if err := s.repo.Delete(ctx, programmerID, slotID); err != nil {
		return err
	}

	s.logger.Info("availability slot deleted", "slot_id", slotID, "programmer_id", programmerID)
	return nil
}

func parseDay(v string) (Day, error) {
	d := Day(strings.ToUpper(strings.TrimSpace(v)))
	if !d.Valid() {
		return "", core.ValidationError("day_of_week must be one of MONDAY..SUNDAY")
	}
	return d, nil
}

// parseModality defaults an empty value to VIRTUAL.
func parseModality(v string) (Modality, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "" {
		return Virtual, nil
	}
	m := Modality(v)
	if !m.Valid() {
		return "", core.ValidationError("modality must be IN_PERSON, VIRTUAL or HYBRID")
	}
	return m, nil
}

func parseClock(field, v string) (string, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(v))
	if err != nil {
		return "", core.ValidationError(field + " must be HH:MM")
	}
	return t.Format(clockLayout), nil
}

// checkWindow relies on both bounds being zero-padded HH:MM.
func checkWindow(s *Slot) error {
	if s.StartTime >= s.EndTime {
		return core.ValidationError("start_time must be before end_time")
	}
	return nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, core.ErrDuplicateKey):
		return core.ConflictError("a slot already starts at that time on that day", "SLOT_EXISTS")
	case errors.Is(err, core.ErrInvalidInput):
		return core.ValidationError("start_time must be before end_time")
	default:
		return err
	}
}
