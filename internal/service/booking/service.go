package booking

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"bookline/backend/internal/domain"
	"bookline/backend/internal/store"
)

// Service is the availability-and-conflict resolution core. FindSlots is
// advisory and read-only; Book re-derives the same facts inside a serialized
// ledger transaction before committing, closing the gap between "slot shown"
// and "slot booked".
type Service struct {
	catalog store.CatalogRepository
	windows store.AvailabilityRepository
	ledger  store.AppointmentRepository

	loc         *time.Location
	stepMinutes int
	now         func() time.Time
}

type Option func(*Service)

// WithStep overrides the booking grid step. The step is configuration, never
// derived from service duration.
func WithStep(minutes int) Option {
	return func(s *Service) { s.stepMinutes = minutes }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(catalog store.CatalogRepository, windows store.AvailabilityRepository, ledger store.AppointmentRepository, loc *time.Location, opts ...Option) *Service {
	s := &Service{
		catalog:     catalog,
		windows:     windows,
		ledger:      ledger,
		loc:         loc,
		stepMinutes: domain.DefaultStepMinutes,
		now:         time.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) resolve(ctx context.Context, employeeID, serviceID int64) (domain.Employee, domain.Service, error) {
	emp, err := s.catalog.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Employee{}, domain.Service{}, newError(KindUnknownEmployee, "employee %d does not exist", employeeID)
		}
		return domain.Employee{}, domain.Service{}, err
	}
	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Employee{}, domain.Service{}, newError(KindUnknownService, "service %d does not exist", serviceID)
		}
		return domain.Employee{}, domain.Service{}, err
	}
	if !emp.Offers(svc.ID) {
		return domain.Employee{}, domain.Service{}, newError(KindServiceNotOffered, "employee %d does not offer service %d", employeeID, serviceID)
	}
	return emp, svc, nil
}

// FindSlots computes the bookable start times for an employee, service and
// date. The result is advisory: it recomputes from raw windows and raw
// appointments on every call and may be stale by the time the caller books.
func (s *Service) FindSlots(ctx context.Context, employeeID, serviceID int64, date time.Time) ([]domain.ClockTime, error) {
	emp, svc, err := s.resolve(ctx, employeeID, serviceID)
	if err != nil {
		return nil, err
	}

	date = domain.DateOnly(date)
	windows, err := s.windows.WindowsFor(ctx, emp.ID, date)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		// Nothing available today. A normal outcome, not an error.
		return nil, nil
	}

	booked, err := s.ledger.ScheduledFor(ctx, emp.ID, date)
	if err != nil {
		return nil, err
	}

	return openSlots(windows, booked, svc.DurationMinutes, s.stepMinutes), nil
}

// openSlots is the pure slot predicate: grid candidates per window, filtered
// by containment in the window and by overlap with booked appointments, then
// merged ascending without duplicates.
func openSlots(windows []domain.AvailabilityWindow, booked []domain.Appointment, durationMinutes, stepMinutes int) []domain.ClockTime {
	seen := make(map[domain.ClockTime]struct{})
	var out []domain.ClockTime

	for _, w := range windows {
		span := w.Span()
		for start := range span.Slots(stepMinutes) {
			occupied := domain.Interval{Start: start, End: start.Add(durationMinutes)}
			if !span.Contains(occupied) {
				continue
			}
			if overlapsAny(occupied, booked) {
				continue
			}
			if _, dup := seen[start]; dup {
				continue
			}
			seen[start] = struct{}{}
			out = append(out, start)
		}
	}

	slices.Sort(out)
	return out
}

func overlapsAny(iv domain.Interval, booked []domain.Appointment) bool {
	for _, a := range booked {
		if iv.Overlaps(a.Occupied()) {
			return true
		}
	}
	return false
}

type BookInput struct {
	UserID     uuid.UUID
	EmployeeID int64
	ServiceID  int64
	Date       time.Time
	Start      domain.ClockTime
	Notes      string
}

// Book validates the proposed appointment against the current ledger state and
// commits it, all inside one serialized unit per (employee, date). The checks
// deliberately duplicate FindSlots: the finder's output is advisory, this one
// is authoritative. Rejections are never repaired into success.
func (s *Service) Book(ctx context.Context, in BookInput) (domain.Appointment, error) {
	if in.UserID == uuid.Nil {
		return domain.Appointment{}, newError(KindMalformedInput, "user_id is required")
	}

	emp, svc, err := s.resolve(ctx, in.EmployeeID, in.ServiceID)
	if err != nil {
		return domain.Appointment{}, err
	}

	date := domain.DateOnly(in.Date)
	startAt := domain.At(date, in.Start, s.loc)
	if !startAt.After(s.now().In(s.loc)) {
		return domain.Appointment{}, newError(KindPastAppointment, "appointment start %s is not in the future", startAt.Format("2006-01-02 15:04"))
	}

	occupied := domain.Interval{Start: in.Start, End: in.Start.Add(svc.DurationMinutes)}

	var out domain.Appointment
	err = s.ledger.InBookingTx(ctx, emp.ID, date, func(ctx context.Context, tx store.BookingTx) error {
		windows, err := tx.WindowsFor(ctx, emp.ID, date)
		if err != nil {
			return err
		}
		if !containedInAny(occupied, windows) {
			return newError(KindOutsideAvailability, "employee %d has no availability covering %s-%s", emp.ID, occupied.Start, occupied.End)
		}

		booked, err := tx.ScheduledFor(ctx, emp.ID, date)
		if err != nil {
			return err
		}
		if overlapsAny(occupied, booked) {
			return newError(KindSlotConflict, "slot %s is already booked", occupied.Start)
		}

		committed, err := tx.Commit(ctx, domain.Appointment{
			EmployeeID:  emp.ID,
			ServiceID:   svc.ID,
			UserID:      in.UserID,
			Date:        date,
			StartMinute: occupied.Start,
			EndMinute:   occupied.End,
			Status:      domain.StatusScheduled,
			Notes:       in.Notes,
		})
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return newError(KindSlotConflict, "slot %s is already booked", occupied.Start)
			}
			return err
		}
		out = committed
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func containedInAny(iv domain.Interval, windows []domain.AvailabilityWindow) bool {
	for _, w := range windows {
		if w.Span().Contains(iv) {
			return true
		}
	}
	return false
}

// List returns appointments visible to the given scope, optionally restricted
// to a date range.
func (s *Service) List(ctx context.Context, scope store.ListScope, filter store.ListFilter) ([]domain.Appointment, error) {
	if !scope.All() && scope.UserID() == uuid.Nil {
		return nil, newError(KindMalformedInput, "viewer scope is required")
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, newError(KindMalformedInput, "end_date must not be before date")
	}
	return s.ledger.List(ctx, scope, filter)
}

// UpdateStatus applies an operator transition. Transitions only shrink the
// occupied set, so booking validation is not re-run.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.AppointmentStatus) (domain.Appointment, error) {
	if !next.Valid() {
		return domain.Appointment{}, newError(KindMalformedInput, "unknown status %q", string(next))
	}
	appt, err := s.ledger.Get(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !appt.Status.CanTransitionTo(next) {
		return domain.Appointment{}, newError(KindMalformedInput, "cannot transition %s appointment to %s", appt.Status, next)
	}
	return s.ledger.UpdateStatus(ctx, id, next)
}

type WindowInput struct {
	EmployeeID int64
	Date       time.Time
	Start      domain.ClockTime
	End        domain.ClockTime
}

// AddWindow records an operator-declared availability window. Past dates are
// rejected here, at creation; the booking path never consults window creation
// time again.
func (s *Service) AddWindow(ctx context.Context, in WindowInput) (domain.AvailabilityWindow, error) {
	if _, err := s.catalog.GetEmployee(ctx, in.EmployeeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AvailabilityWindow{}, newError(KindUnknownEmployee, "employee %d does not exist", in.EmployeeID)
		}
		return domain.AvailabilityWindow{}, err
	}
	if in.Start >= in.End {
		return domain.AvailabilityWindow{}, newError(KindInvalidWindow, "window start %s must be before end %s", in.Start, in.End)
	}

	date := domain.DateOnly(in.Date)
	today := domain.DateOnly(s.now().In(s.loc))
	if date.Before(today) {
		return domain.AvailabilityWindow{}, newError(KindInvalidWindow, "cannot declare availability for past date %s", date.Format(domain.DateLayout))
	}

	w, err := s.windows.AddWindow(ctx, domain.AvailabilityWindow{
		EmployeeID:  in.EmployeeID,
		Date:        date,
		StartMinute: in.Start,
		EndMinute:   in.End,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidWindow) {
			return domain.AvailabilityWindow{}, newError(KindInvalidWindow, "window start %s must be before end %s", in.Start, in.End)
		}
		return domain.AvailabilityWindow{}, err
	}
	return w, nil
}

// WindowsFor lists the declared windows for an employee/date.
func (s *Service) WindowsFor(ctx context.Context, employeeID int64, date time.Time) ([]domain.AvailabilityWindow, error) {
	if _, err := s.catalog.GetEmployee(ctx, employeeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindUnknownEmployee, "employee %d does not exist", employeeID)
		}
		return nil, err
	}
	return s.windows.WindowsFor(ctx, employeeID, domain.DateOnly(date))
}

// Services lists the bookable catalog.
func (s *Service) Services(ctx context.Context) ([]domain.Service, error) {
	return s.catalog.ListServices(ctx)
}

// Employees lists active employees, optionally only those offering serviceID.
func (s *Service) Employees(ctx context.Context, serviceID int64) ([]domain.Employee, error) {
	return s.catalog.ListEmployees(ctx, serviceID)
}
