package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"bookline/backend/internal/domain"
	"bookline/backend/internal/store"
	"bookline/backend/internal/store/memory"
)

var (
	testNow  = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	testDate = time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	store     *memory.Store
	svc       *Service
	massage   domain.Service
	therapist domain.Employee
	user      uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.NewStore()
	massage := st.AddService(domain.Service{Name: "Deep Tissue Massage", DurationMinutes: 60, Active: true})
	therapist := st.AddEmployee(domain.Employee{Name: "Mara", ServiceIDs: []int64{massage.ID}, Active: true})
	svc := NewService(st, st, st, time.UTC, WithClock(func() time.Time { return testNow }))
	return &fixture{
		store:     st,
		svc:       svc,
		massage:   massage,
		therapist: therapist,
		user:      uuid.New(),
	}
}

func (f *fixture) addWindow(t *testing.T, start, end domain.ClockTime) {
	t.Helper()
	_, err := f.store.AddWindow(context.Background(), domain.AvailabilityWindow{
		EmployeeID:  f.therapist.ID,
		Date:        testDate,
		StartMinute: start,
		EndMinute:   end,
	})
	if err != nil {
		t.Fatalf("AddWindow error: %v", err)
	}
}

func clock(t *testing.T, s string) domain.ClockTime {
	t.Helper()
	c, err := domain.ParseClock(s)
	if err != nil {
		t.Fatalf("ParseClock(%q) error: %v", s, err)
	}
	return c
}

func slotStrings(slots []domain.ClockTime) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.String())
	}
	return out
}

func requireKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	kind, ok := KindOf(err)
	if !ok {
		t.Fatalf("error %v has no booking kind, want %s", err, want)
	}
	if kind != want {
		t.Fatalf("error kind = %s, want %s (err: %v)", kind, want, err)
	}
}

func TestFindSlots_FullDayGrid(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "17:00"))

	slots, err := f.svc.FindSlots(context.Background(), f.therapist.ID, f.massage.ID, testDate)
	if err != nil {
		t.Fatalf("FindSlots error: %v", err)
	}

	got := slotStrings(slots)
	if len(got) != 15 {
		t.Fatalf("len(slots) = %d, want 15 (%v)", len(got), got)
	}
	if got[0] != "09:00" {
		t.Fatalf("first slot = %q, want %q", got[0], "09:00")
	}
	// 16:00 + 60min = 17:00 still fits; 16:30 must not appear.
	if got[len(got)-1] != "16:00" {
		t.Fatalf("last slot = %q, want %q", got[len(got)-1], "16:00")
	}
	for _, s := range got {
		if s == "16:30" {
			t.Fatalf("16:30 must be excluded, got %v", got)
		}
	}
}

func TestFindSlots_BookingExcludesOverlappingStarts(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "17:00"))

	_, err := f.svc.Book(context.Background(), BookInput{
		UserID:     f.user,
		EmployeeID: f.therapist.ID,
		ServiceID:  f.massage.ID,
		Date:       testDate,
		Start:      clock(t, "16:00"),
	})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	slots, err := f.svc.FindSlots(context.Background(), f.therapist.ID, f.massage.ID, testDate)
	if err != nil {
		t.Fatalf("FindSlots error: %v", err)
	}
	got := slotStrings(slots)

	// Any start whose interval overlaps [16:00,17:00) is gone.
	for _, s := range got {
		if s == "15:30" || s == "16:00" {
			t.Fatalf("slot %q should be excluded after booking, got %v", s, got)
		}
	}
	if got[0] != "09:00" || got[len(got)-1] != "15:00" {
		t.Fatalf("slots = %v, want 09:00..15:00", got)
	}
	if len(got) != 13 {
		t.Fatalf("len(slots) = %d, want 13", len(got))
	}
}

func TestFindSlots_NoWindowsIsEmptySuccess(t *testing.T) {
	f := newFixture(t)

	slots, err := f.svc.FindSlots(context.Background(), f.therapist.ID, f.massage.ID, testDate)
	if err != nil {
		t.Fatalf("FindSlots error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("slots = %v, want empty", slots)
	}
}

func TestFindSlots_ResolutionErrors(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "17:00"))

	_, err := f.svc.FindSlots(context.Background(), 999, f.massage.ID, testDate)
	requireKind(t, err, KindUnknownEmployee)

	_, err = f.svc.FindSlots(context.Background(), f.therapist.ID, 999, testDate)
	requireKind(t, err, KindUnknownService)

	other := f.store.AddService(domain.Service{Name: "Hot Stone", DurationMinutes: 90, Active: true})
	_, err = f.svc.FindSlots(context.Background(), f.therapist.ID, other.ID, testDate)
	requireKind(t, err, KindServiceNotOffered)
}

func TestFindSlots_OverlappingWindowsMergeWithoutDuplicates(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "13:00"))
	f.addWindow(t, clock(t, "11:00"), clock(t, "17:00"))

	slots, err := f.svc.FindSlots(context.Background(), f.therapist.ID, f.massage.ID, testDate)
	if err != nil {
		t.Fatalf("FindSlots error: %v", err)
	}
	got := slotStrings(slots)

	seen := make(map[string]bool)
	for _, s := range got {
		if seen[s] {
			t.Fatalf("duplicate slot %q in %v", s, got)
		}
		seen[s] = true
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("slots not strictly ascending: %v", got)
		}
	}
	// Union of both windows covers the same grid as a single 09:00-17:00 shift.
	if got[0] != "09:00" || got[len(got)-1] != "16:00" || len(got) != 15 {
		t.Fatalf("slots = %v, want 09:00..16:00", got)
	}
}

func TestFindSlots_SplitShiftsExcludeTheGap(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "12:00"))
	f.addWindow(t, clock(t, "14:00"), clock(t, "17:00"))

	slots, err := f.svc.FindSlots(context.Background(), f.therapist.ID, f.massage.ID, testDate)
	if err != nil {
		t.Fatalf("FindSlots error: %v", err)
	}
	got := slotStrings(slots)
	for _, s := range got {
		// 11:30 would run into the gap; 13:xx starts inside it.
		if s == "11:30" || s == "12:30" || s == "13:00" || s == "13:30" {
			t.Fatalf("slot %q should not be bookable across the shift gap (%v)", s, got)
		}
	}
	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "14:00", "14:30", "15:00", "15:30", "16:00"}
	if len(got) != len(want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slots[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFindSlots_IdempotentRead(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "17:00"))

	first, err := f.svc.FindSlots(context.Background(), f.therapist.ID, f.massage.ID, testDate)
	if err != nil {
		t.Fatalf("FindSlots error: %v", err)
	}
	second, err := f.svc.FindSlots(context.Background(), f.therapist.ID, f.massage.ID, testDate)
	if err != nil {
		t.Fatalf("FindSlots error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("reads differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("reads differ at %d: %v vs %v", i, first, second)
		}
	}
}

func TestBook_PersistsScheduledAppointment(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "17:00"))

	appt, err := f.svc.Book(context.Background(), BookInput{
		UserID:     f.user,
		EmployeeID: f.therapist.ID,
		ServiceID:  f.massage.ID,
		Date:       testDate,
		Start:      clock(t, "10:00"),
		Notes:      "first visit",
	})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if appt.ID == uuid.Nil {
		t.Fatalf("expected assigned id")
	}
	if appt.Status != domain.StatusScheduled {
		t.Fatalf("status = %s, want scheduled", appt.Status)
	}
	if appt.EndMinute != clock(t, "11:00") {
		t.Fatalf("end = %s, want 11:00", appt.EndMinute)
	}

	stored, err := f.store.Get(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if stored.Notes != "first visit" {
		t.Fatalf("notes = %q", stored.Notes)
	}
}

func TestBook_PastAppointment(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "17:00"))

	// testNow is 08:00 on Sep 1; 07:30 that day is already gone.
	today := domain.DateOnly(testNow)
	_, err := f.store.AddWindow(context.Background(), domain.AvailabilityWindow{
		EmployeeID: f.therapist.ID, Date: today,
		StartMinute: clock(t, "07:00"), EndMinute: clock(t, "17:00"),
	})
	if err != nil {
		t.Fatalf("AddWindow error: %v", err)
	}

	_, err = f.svc.Book(context.Background(), BookInput{
		UserID:     f.user,
		EmployeeID: f.therapist.ID,
		ServiceID:  f.massage.ID,
		Date:       today,
		Start:      clock(t, "07:30"),
	})
	requireKind(t, err, KindPastAppointment)

	// Booking exactly "now" is also rejected: the start must be strictly in
	// the future.
	_, err = f.svc.Book(context.Background(), BookInput{
		UserID:     f.user,
		EmployeeID: f.therapist.ID,
		ServiceID:  f.massage.ID,
		Date:       today,
		Start:      clock(t, "08:00"),
	})
	requireKind(t, err, KindPastAppointment)
}

func TestBook_OutsideAvailability(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "17:00"))

	_, err := f.svc.Book(context.Background(), BookInput{
		UserID:     f.user,
		EmployeeID: f.therapist.ID,
		ServiceID:  f.massage.ID,
		Date:       testDate,
		Start:      clock(t, "08:00"),
	})
	requireKind(t, err, KindOutsideAvailability)

	// 16:30 + 60min runs past the end of the shift.
	_, err = f.svc.Book(context.Background(), BookInput{
		UserID:     f.user,
		EmployeeID: f.therapist.ID,
		ServiceID:  f.massage.ID,
		Date:       testDate,
		Start:      clock(t, "16:30"),
	})
	requireKind(t, err, KindOutsideAvailability)
}

func TestBook_SlotConflict(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "17:00"))

	in := BookInput{
		UserID:     f.user,
		EmployeeID: f.therapist.ID,
		ServiceID:  f.massage.ID,
		Date:       testDate,
		Start:      clock(t, "10:00"),
	}
	if _, err := f.svc.Book(context.Background(), in); err != nil {
		t.Fatalf("first Book error: %v", err)
	}

	_, err := f.svc.Book(context.Background(), in)
	requireKind(t, err, KindSlotConflict)

	// Partial overlap conflicts too, not only identical starts.
	in.Start = clock(t, "10:30")
	_, err = f.svc.Book(context.Background(), in)
	requireKind(t, err, KindSlotConflict)

	// Touching intervals do not conflict.
	in.Start = clock(t, "11:00")
	if _, err := f.svc.Book(context.Background(), in); err != nil {
		t.Fatalf("adjacent Book error: %v", err)
	}
}

func TestBook_ConcurrentSameSlot_AtMostOneSucceeds(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "17:00"))

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), BookInput{
				UserID:     uuid.New(),
				EmployeeID: f.therapist.ID,
				ServiceID:  f.massage.ID,
				Date:       testDate,
				Start:      clock(t, "14:00"),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			default:
				if kind, ok := KindOf(err); ok && kind == KindSlotConflict {
					conflicts++
				}
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("successes = %d, want exactly 1", successes)
	}
	if conflicts != attempts-1 {
		t.Fatalf("conflicts = %d, want %d", conflicts, attempts-1)
	}
}

func TestCancel_MonotonicallyEnlargesSlots(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "17:00"))

	appt, err := f.svc.Book(context.Background(), BookInput{
		UserID:     f.user,
		EmployeeID: f.therapist.ID,
		ServiceID:  f.massage.ID,
		Date:       testDate,
		Start:      clock(t, "12:00"),
	})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	before, err := f.svc.FindSlots(context.Background(), f.therapist.ID, f.massage.ID, testDate)
	if err != nil {
		t.Fatalf("FindSlots error: %v", err)
	}

	if _, err := f.svc.UpdateStatus(context.Background(), appt.ID, domain.StatusCancelled); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}

	after, err := f.svc.FindSlots(context.Background(), f.therapist.ID, f.massage.ID, testDate)
	if err != nil {
		t.Fatalf("FindSlots error: %v", err)
	}

	if len(after) <= len(before) {
		t.Fatalf("cancel did not enlarge slot set: before %d, after %d", len(before), len(after))
	}
	afterSet := make(map[domain.ClockTime]bool, len(after))
	for _, s := range after {
		afterSet[s] = true
	}
	for _, s := range before {
		if !afterSet[s] {
			t.Fatalf("slot %s disappeared after cancel", s)
		}
	}
}

func TestUpdateStatus_Transitions(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "17:00"))

	appt, err := f.svc.Book(context.Background(), BookInput{
		UserID:     f.user,
		EmployeeID: f.therapist.ID,
		ServiceID:  f.massage.ID,
		Date:       testDate,
		Start:      clock(t, "09:00"),
	})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	updated, err := f.svc.UpdateStatus(context.Background(), appt.ID, domain.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", updated.Status)
	}

	_, err = f.svc.UpdateStatus(context.Background(), appt.ID, domain.StatusCancelled)
	requireKind(t, err, KindMalformedInput)

	_, err = f.svc.UpdateStatus(context.Background(), appt.ID, domain.AppointmentStatus("bogus"))
	requireKind(t, err, KindMalformedInput)

	_, err = f.svc.UpdateStatus(context.Background(), uuid.New(), domain.StatusCancelled)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown id err = %v, want ErrNotFound", err)
	}
}

func TestAddWindow_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddWindow(context.Background(), WindowInput{
		EmployeeID: f.therapist.ID,
		Date:       testDate,
		Start:      clock(t, "17:00"),
		End:        clock(t, "09:00"),
	})
	requireKind(t, err, KindInvalidWindow)

	_, err = f.svc.AddWindow(context.Background(), WindowInput{
		EmployeeID: f.therapist.ID,
		Date:       testNow.AddDate(0, 0, -1),
		Start:      clock(t, "09:00"),
		End:        clock(t, "17:00"),
	})
	requireKind(t, err, KindInvalidWindow)

	_, err = f.svc.AddWindow(context.Background(), WindowInput{
		EmployeeID: 999,
		Date:       testDate,
		Start:      clock(t, "09:00"),
		End:        clock(t, "17:00"),
	})
	requireKind(t, err, KindUnknownEmployee)

	w, err := f.svc.AddWindow(context.Background(), WindowInput{
		EmployeeID: f.therapist.ID,
		Date:       testDate,
		Start:      clock(t, "09:00"),
		End:        clock(t, "17:00"),
	})
	if err != nil {
		t.Fatalf("AddWindow error: %v", err)
	}
	if w.ID == 0 {
		t.Fatalf("expected assigned window id")
	}
}

func TestList_ScopedToViewer(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, clock(t, "09:00"), clock(t, "17:00"))

	otherUser := uuid.New()
	for _, b := range []struct {
		user  uuid.UUID
		start string
	}{
		{f.user, "09:00"},
		{otherUser, "10:00"},
		{f.user, "11:00"},
	} {
		_, err := f.svc.Book(context.Background(), BookInput{
			UserID:     b.user,
			EmployeeID: f.therapist.ID,
			ServiceID:  f.massage.ID,
			Date:       testDate,
			Start:      clock(t, b.start),
		})
		if err != nil {
			t.Fatalf("Book(%s) error: %v", b.start, err)
		}
	}

	own, err := f.svc.List(context.Background(), store.Self(f.user), store.ListFilter{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(own) != 2 {
		t.Fatalf("own listings = %d, want 2", len(own))
	}
	for _, a := range own {
		if a.UserID != f.user {
			t.Fatalf("foreign appointment in self scope: %v", a.ID)
		}
	}

	all, err := f.svc.List(context.Background(), store.Everyone(), store.ListFilter{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all listings = %d, want 3", len(all))
	}

	_, err = f.svc.List(context.Background(), store.Self(uuid.Nil), store.ListFilter{})
	requireKind(t, err, KindMalformedInput)

	_, err = f.svc.List(context.Background(), store.Everyone(), store.ListFilter{
		From: testDate,
		To:   testDate.AddDate(0, 0, -2),
	})
	requireKind(t, err, KindMalformedInput)
}
