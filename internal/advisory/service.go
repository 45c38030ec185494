// AngelaMos | 2026
// service.go

package advisory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/advisory-backend/internal/core"
	"github.com/carterperez-dev/advisory-backend/internal/notify"
	"github.com/carterperez-dev/advisory-backend/internal/user"
)

type UserGetter interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, userID string, event notify.Event)
}

type ManagerConfig struct {
	Repo             Repository
	Users            UserGetter
	Location         *time.Location
	MaxMessageLength int
	Cache            ListCache
	Events           EventPublisher
	Tracer           trace.Tracer
	Logger           *slog.Logger
	Now              func() time.Time
}

// Manager owns advisory creation and the PENDING -> APPROVED | REJECTED
// transitions. It holds no locks; concurrent responses are serialized by
// the compare-and-set in Repository.Respond.
type Manager struct {
	repo   Repository
	users  UserGetter
	rules  Rules
	cache  ListCache
	events EventPublisher
	tracer trace.Tracer
	logger *slog.Logger
}

func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		repo:  cfg.Repo,
		users: cfg.Users,
		rules: Rules{
			Location:         cfg.Location,
			MaxMessageLength: cfg.MaxMessageLength,
			Now:              cfg.Now,
		},
		cache:  cfg.Cache,
		events: cfg.Events,
		tracer: cfg.Tracer,
		logger: cfg.Logger,
	}

	if m.cache == nil {
		m.cache = noopCache{}
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer("advisory")
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	return m
}

type RequestInput struct {
	ClientID     string
	ProgrammerID string
	Date         string
	Time         string
	Comment      string
}

type RespondInput struct {
	AdvisoryID   string
	ActingUserID string
	Decision     string
	Message      string
}

func (m *Manager) Request(ctx context.Context, in RequestInput) (*Advisory, error) {
	ctx, span := m.tracer.Start(ctx, "advisory.Request", trace.WithAttributes(
		attribute.String("advisory.client_id", in.ClientID),
		attribute.String("advisory.programmer_id", in.ProgrammerID),
	))
	defer span.End()

	a, err := m.request(ctx, in)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("advisory.id", a.ID))
	m.cache.Invalidate(ctx, a.ClientID, a.ProgrammerID)
	m.publish(ctx, a.ProgrammerID, notify.EventAdvisoryRequested, a)

	m.logger.Info("advisory requested",
		"advisory_id", a.ID,
		"client_id", a.ClientID,
		"programmer_id", a.ProgrammerID,
	)

	return a, nil
}

func (m *Manager) request(ctx context.Context, in RequestInput) (*Advisory, error) {
	if err := m.rules.CheckParticipants(in.ClientID, in.ProgrammerID); err != nil {
		return nil, err
	}

	if _, err := m.resolveParticipant(ctx, in.ClientID); err != nil {
		return nil, err
	}

	programmer, err := m.resolveParticipant(ctx, in.ProgrammerID)
	if err != nil {
		return nil, err
	}
	if !programmer.IsProgrammer() {
		return nil, fmt.Errorf(
			"request advisory: user is not a programmer: %w",
			ErrInvalidParticipants,
		)
	}

	date, clock, err := m.rules.CheckSchedule(in.Date, in.Time)
	if err != nil {
		return nil, err
	}

	comment, err := m.rules.NormalizeComment(in.Comment)
	if err != nil {
		return nil, err
	}

	a := &Advisory{
		ID:           uuid.New().String(),
		ProgrammerID: in.ProgrammerID,
		ClientID:     in.ClientID,
		Date:         date,
		Time:         clock,
		Comment:      comment,
		Status:       StatusPending,
	}

	if err := m.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (m *Manager) resolveParticipant(ctx context.Context, id string) (*user.User, error) {
	u, err := m.users.GetUser(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf(
			"request advisory: unknown user %q: %w",
			id, ErrInvalidParticipants,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("request advisory: %w", err)
	}
	return u, nil
}

func (m *Manager) Respond(ctx context.Context, in RespondInput) (*Advisory, error) {
	ctx, span := m.tracer.Start(ctx, "advisory.Respond", trace.WithAttributes(
		attribute.String("advisory.id", in.AdvisoryID),
		attribute.String("advisory.decision", in.Decision),
	))
	defer span.End()

	current, err := m.repo.GetByID(ctx, in.AdvisoryID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	decision := Decision(strings.ToUpper(strings.TrimSpace(in.Decision)))
	next, message, err := m.rules.Transition(current, in.ActingUserID, decision, in.Message)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	updated, err := m.repo.Respond(ctx, current.ID, next, message, m.rules.now().UTC())
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	m.cache.Invalidate(ctx, updated.ClientID, updated.ProgrammerID)
	m.publish(ctx, updated.ClientID, notify.EventAdvisoryResponded, updated)

	m.logger.Info("advisory responded",
		"advisory_id", updated.ID,
		"status", updated.Status,
	)

	return updated, nil
}

// List returns the user's advisories ordered by date, then time.
func (m *Manager) List(
	ctx context.Context,
	userID string,
	role RoleFilter,
	status Status,
) ([]Advisory, error) {
	if userID == "" {
		return nil, fmt.Errorf("list advisories: %w", core.ErrUnauthorized)
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("list advisories: %w", core.ValidationError(
			"status must be one of PENDING, APPROVED, REJECTED",
		))
	}

	ctx, span := m.tracer.Start(ctx, "advisory.List", trace.WithAttributes(
		attribute.String("advisory.role", string(role)),
	))
	defer span.End()

	f := ListFilter{UserID: userID, Role: role, Status: status}

	cached, gen, ok := m.cache.Get(ctx, f)
	if ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	advisories, err := m.repo.List(ctx, f)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	m.cache.Set(ctx, f, gen, advisories)
	return advisories, nil
}

// Get returns a single advisory to one of its participants or an admin.
func (m *Manager) Get(
	ctx context.Context,
	id, actingUserID string,
	isAdmin bool,
) (*Advisory, error) {
	a, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin && !a.IsParticipant(actingUserID) {
		return nil, fmt.Errorf("get advisory: %w", core.ErrForbidden)
	}

	return a, nil
}

func (m *Manager) publish(
	ctx context.Context,
	userID, eventType string,
	a *Advisory,
) {
	if m.events == nil {
		return
	}

	m.events.Publish(context.WithoutCancel(ctx), userID, notify.Event{
		Type:       eventType,
		AdvisoryID: a.ID,
		Status:     string(a.Status),
		At:         m.rules.now().UTC(),
	})
}

func recordError(span trace.Span, err error) {
	core.RecordSpanError(span, err,
		ErrInvalidParticipants,
		ErrInvalidSchedule,
		ErrInvalidState,
	)
}
