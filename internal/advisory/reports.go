// AngelaMos | 2026
// reports.go

package advisory

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

type Dashboard struct {
	Totals
	ByStatus     []StatusCount     `json:"advisories_by_status"`
	ByProgrammer []ProgrammerCount `json:"advisories_by_programmer"`
	ByDate       []DateCount       `json:"advisories_by_date"`
}

func (m *Manager) ReportByStatus(ctx context.Context, f ReportFilter) ([]StatusCount, error) {
	if err := validateReportFilter(f); err != nil {
		return nil, err
	}
	return m.repo.CountByStatus(ctx, f)
}

func (m *Manager) ReportByProgrammer(ctx context.Context, f ReportFilter) ([]ProgrammerCount, error) {
	if err := validateReportFilter(f); err != nil {
		return nil, err
	}
	return m.repo.CountByProgrammer(ctx, f)
}

func (m *Manager) ReportByDate(ctx context.Context, f ReportFilter) ([]DateCount, error) {
	if err := validateReportFilter(f); err != nil {
		return nil, err
	}
	return m.repo.CountByDate(ctx, f)
}

func (m *Manager) Dashboard(ctx context.Context, f ReportFilter) (*Dashboard, error) {
	ctx, span := m.tracer.Start(ctx, "advisory.Dashboard")
	defer span.End()

	if err := validateReportFilter(f); err != nil {
		return nil, err
	}

	totals, err := m.repo.Totals(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	d := &Dashboard{Totals: *totals}

	if d.ByStatus, err = m.repo.CountByStatus(ctx, f); err != nil {
		recordError(span, err)
		return nil, err
	}
	if d.ByProgrammer, err = m.repo.CountByProgrammer(ctx, f); err != nil {
		recordError(span, err)
		return nil, err
	}
	if d.ByDate, err = m.repo.CountByDate(ctx, f); err != nil {
		recordError(span, err)
		return nil, err
	}

	return d, nil
}

func validateReportFilter(f ReportFilter) error {
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("report: %w", core.ValidationError(
			"status must be one of PENDING, APPROVED, REJECTED",
		))
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return fmt.Errorf("report: %w", core.ValidationError(
			"end_date must not be before start_date",
		))
	}
	return nil
}
