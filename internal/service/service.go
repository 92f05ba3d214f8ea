package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"waybilltrack/backend/internal/directory"
	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/policy"
	"waybilltrack/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

var ErrValidation = errors.New("validation failed")

// ValidationError names the offending input field, using the JSON path the
// caller sent (for example "waybills[0].items[1].product_name").
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field string, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Notifier receives an event after every successful waybill write.
type Notifier interface {
	Publish(ctx context.Context, event domain.WaybillEvent)
}

type noopNotifier struct{}

func (noopNotifier) Publish(context.Context, domain.WaybillEvent) {}

type Settings struct {
	DashboardLimit int
	OverdueDays    int
	ProductPage    int
}

type Service struct {
	repo      store.Repository
	ledger    store.CountLedger
	directory *directory.Directory
	notifier  Notifier
	settings  Settings
	now       func() time.Time
}

func New(repo store.Repository, dir *directory.Directory, notifier Notifier, settings Settings) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if dir == nil {
		dir = directory.New(repo, nil, 0)
	}
	if settings.DashboardLimit < 1 {
		settings.DashboardLimit = 10
	}
	if settings.OverdueDays < 1 {
		settings.OverdueDays = 7
	}
	if settings.ProductPage < 1 {
		settings.ProductPage = 10
	}

	return &Service{
		repo:      repo,
		ledger:    repo,
		directory: dir,
		notifier:  notifier,
		settings:  settings,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// UseLedger moves count ledger reads and writes to a store other than the
// main repository.
func (s *Service) UseLedger(ledger store.CountLedger) {
	if ledger != nil {
		s.ledger = ledger
	}
}

func (s *Service) authorize(ctx context.Context, capability policy.Capability) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, fmt.Errorf("%w: no authenticated actor", policy.ErrForbidden)
	}
	if err := policy.Allow(actor.Role, capability); err != nil {
		return domain.Actor{}, err
	}
	return actor, nil
}

func (s *Service) publish(ctx context.Context, waybill domain.Waybill, event string) {
	s.notifier.Publish(ctx, domain.WaybillEvent{
		IncomingID: waybill.ID,
		WaybillNo:  waybill.WaybillNo,
		Event:      event,
		OccurredAt: s.now(),
	})
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseDayRange turns optional YYYY-MM-DD bounds into an inclusive range:
// from starts at 00:00:00 and to ends at 23:59:59.999.
func parseDayRange(from string, to string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if v := strings.TrimSpace(from); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, nil, invalid("from", "must be a date in YYYY-MM-DD form")
		}
		day := parsed.UTC()
		start = &day
	}
	if v := strings.TrimSpace(to); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, nil, invalid("to", "must be a date in YYYY-MM-DD form")
		}
		day := parsed.UTC().Add(24*time.Hour - time.Millisecond)
		end = &day
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, invalid("to", "must not be before from")
	}
	return start, end, nil
}

func logWarnings(op string, warnings []domain.ResolutionWarning) {
	if len(warnings) > 0 {
		log.Printf("[service] WARN: %s finished with %d unresolved product(s)", op, len(warnings))
	}
}
