// Package memory holds an in-process implementation of the store contracts.
// Bookings are serialized with one mutex per (employee, date), the in-process
// equivalent of the advisory-lock discipline the postgres store uses.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookline/backend/internal/domain"
	"bookline/backend/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	services  map[int64]domain.Service
	employees map[int64]domain.Employee
	windows   []domain.AvailabilityWindow
	appts     map[uuid.UUID]domain.Appointment
	seq       map[uuid.UUID]int

	nextServiceID  int64
	nextEmployeeID int64
	nextWindowID   int64
	nextSeq        int

	bookMu    sync.Mutex
	bookLocks map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		services:  make(map[int64]domain.Service),
		employees: make(map[int64]domain.Employee),
		appts:     make(map[uuid.UUID]domain.Appointment),
		seq:       make(map[uuid.UUID]int),
		bookLocks: make(map[string]*sync.Mutex),
	}
}

// AddService registers a catalog service and assigns its id. The duration
// check mirrors the schema constraint, so both stores agree on valid input.
func (s *Store) AddService(svc domain.Service) domain.Service {
	if svc.DurationMinutes <= 0 {
		panic(fmt.Sprintf("memory: service duration must be positive, got %d", svc.DurationMinutes))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextServiceID++
	svc.ID = s.nextServiceID
	s.services[svc.ID] = svc
	return svc
}

// AddEmployee registers an employee and assigns their id.
func (s *Store) AddEmployee(emp domain.Employee) domain.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEmployeeID++
	emp.ID = s.nextEmployeeID
	s.employees[emp.ID] = emp
	return emp
}

func (s *Store) ListServices(ctx context.Context) ([]domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Service
	for _, svc := range s.services {
		if svc.Active {
			out = append(out, svc)
		}
	}
	slices.SortFunc(out, func(a, b domain.Service) int { return int(a.ID - b.ID) })
	return out, nil
}

func (s *Store) GetService(ctx context.Context, id int64) (domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok {
		return domain.Service{}, store.ErrNotFound
	}
	return svc, nil
}

func (s *Store) ListEmployees(ctx context.Context, serviceID int64) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Employee
	for _, emp := range s.employees {
		if !emp.Active {
			continue
		}
		if serviceID > 0 && !emp.Offers(serviceID) {
			continue
		}
		out = append(out, emp)
	}
	slices.SortFunc(out, func(a, b domain.Employee) int { return int(a.ID - b.ID) })
	return out, nil
}

func (s *Store) GetEmployee(ctx context.Context, id int64) (domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[id]
	if !ok {
		return domain.Employee{}, store.ErrNotFound
	}
	return emp, nil
}

func (s *Store) WindowsFor(ctx context.Context, employeeID int64, date time.Time) ([]domain.AvailabilityWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.windowsForLocked(employeeID, date), nil
}

func (s *Store) windowsForLocked(employeeID int64, date time.Time) []domain.AvailabilityWindow {
	date = domain.DateOnly(date)
	var out []domain.AvailabilityWindow
	for _, w := range s.windows {
		if w.EmployeeID == employeeID && w.Date.Equal(date) {
			out = append(out, w)
		}
	}
	return out
}

func (s *Store) AddWindow(ctx context.Context, w domain.AvailabilityWindow) (domain.AvailabilityWindow, error) {
	if w.StartMinute >= w.EndMinute {
		return domain.AvailabilityWindow{}, store.ErrInvalidWindow
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextWindowID++
	w.ID = s.nextWindowID
	w.Date = domain.DateOnly(w.Date)
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	s.windows = append(s.windows, w)
	return w, nil
}

func (s *Store) SeedWindow(ctx context.Context, w domain.AvailabilityWindow) (bool, error) {
	if w.StartMinute >= w.EndMinute {
		return false, store.ErrInvalidWindow
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.windowsForLocked(w.EmployeeID, w.Date)) > 0 {
		return false, nil
	}
	s.nextWindowID++
	w.ID = s.nextWindowID
	w.Date = domain.DateOnly(w.Date)
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	s.windows = append(s.windows, w)
	return true, nil
}

func (s *Store) ScheduledFor(ctx context.Context, employeeID int64, date time.Time) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheduledForLocked(employeeID, date), nil
}

func (s *Store) scheduledForLocked(employeeID int64, date time.Time) []domain.Appointment {
	date = domain.DateOnly(date)
	var out []domain.Appointment
	for _, a := range s.appts {
		if a.EmployeeID == employeeID && a.Date.Equal(date) && a.Status == domain.StatusScheduled {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b domain.Appointment) int {
		if a.StartMinute != b.StartMinute {
			return int(a.StartMinute - b.StartMinute)
		}
		return s.seq[a.ID] - s.seq[b.ID]
	})
	return out
}

func (s *Store) List(ctx context.Context, scope store.ListScope, filter store.ListFilter) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Appointment
	for _, a := range s.appts {
		if !scope.All() && a.UserID != scope.UserID() {
			continue
		}
		if !filter.From.IsZero() && a.Date.Before(domain.DateOnly(filter.From)) {
			continue
		}
		if !filter.To.IsZero() && a.Date.After(domain.DateOnly(filter.To)) {
			continue
		}
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b domain.Appointment) int {
		if !a.Date.Equal(b.Date) {
			if a.Date.Before(b.Date) {
				return -1
			}
			return 1
		}
		if a.StartMinute != b.StartMinute {
			return int(a.StartMinute - b.StartMinute)
		}
		return s.seq[a.ID] - s.seq[b.ID]
	})
	return out, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appts[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return a, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	s.appts[id] = a
	return a, nil
}

func (s *Store) InBookingTx(ctx context.Context, employeeID int64, date time.Time, fn func(ctx context.Context, tx store.BookingTx) error) error {
	mu := s.bookLock(employeeID, date)
	mu.Lock()
	defer mu.Unlock()
	return fn(ctx, bookingTx{s: s})
}

func (s *Store) bookLock(employeeID int64, date time.Time) *sync.Mutex {
	key := fmt.Sprintf("%d:%s", employeeID, domain.DateOnly(date).Format(domain.DateLayout))
	s.bookMu.Lock()
	defer s.bookMu.Unlock()
	mu, ok := s.bookLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.bookLocks[key] = mu
	}
	return mu
}

type bookingTx struct {
	s *Store
}

func (t bookingTx) WindowsFor(ctx context.Context, employeeID int64, date time.Time) ([]domain.AvailabilityWindow, error) {
	return t.s.WindowsFor(ctx, employeeID, date)
}

func (t bookingTx) ScheduledFor(ctx context.Context, employeeID int64, date time.Time) ([]domain.Appointment, error) {
	return t.s.ScheduledFor(ctx, employeeID, date)
}

func (t bookingTx) Commit(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	// Commit re-checks the invariant even though callers hold the booking
	// lock; the ledger itself never stores overlapping scheduled intervals.
	for _, existing := range t.s.scheduledForLocked(appt.EmployeeID, appt.Date) {
		if appt.Occupied().Overlaps(existing.Occupied()) {
			return domain.Appointment{}, store.ErrConflict
		}
	}

	if appt.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Appointment{}, err
		}
		appt.ID = id
	}
	now := time.Now().UTC()
	appt.Date = domain.DateOnly(appt.Date)
	appt.CreatedAt = now
	appt.UpdatedAt = now

	t.s.nextSeq++
	t.s.seq[appt.ID] = t.s.nextSeq
	t.s.appts[appt.ID] = appt
	return appt, nil
}

// UserStore is the in-process user repository. Kept separate from Store so
// each type satisfies exactly one repository contract.
type UserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]domain.User)}
}

func (s *UserStore) Create(ctx context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.User{}, store.ErrDuplicateEmail
		}
	}
	if u.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.User{}, err
		}
		u.ID = id
	}
	if u.Role == "" {
		u.Role = domain.RoleClient
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = u
	return u, nil
}

func (s *UserStore) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}
