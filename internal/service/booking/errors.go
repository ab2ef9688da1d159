package booking

import (
	"errors"
	"fmt"
)

// Kind tags every caller-correctable booking failure. None of these is
// process-fatal; the transport maps each kind to a 4xx status.
type Kind int

const (
	KindMalformedInput Kind = iota
	KindInvalidWindow
	KindUnknownEmployee
	KindUnknownService
	KindServiceNotOffered
	KindPastAppointment
	KindOutsideAvailability
	KindSlotConflict
)

func (k Kind) String() string {
	switch k {
	case KindMalformedInput:
		return "malformed_input"
	case KindInvalidWindow:
		return "invalid_window"
	case KindUnknownEmployee:
		return "unknown_employee"
	case KindUnknownService:
		return "unknown_service"
	case KindServiceNotOffered:
		return "service_not_offered"
	case KindPastAppointment:
		return "past_appointment"
	case KindOutsideAvailability:
		return "outside_availability"
	case KindSlotConflict:
		return "slot_conflict"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the booking error kind, if err carries one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
