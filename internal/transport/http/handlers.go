package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"bookline/backend/internal/domain"
	"bookline/backend/internal/service/booking"
	"bookline/backend/internal/store"
)

type serviceView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Duration    int    `json:"duration"`
	Active      bool   `json:"active"`
}

type employeeView struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Specialization string  `json:"specialization,omitempty"`
	Services       []int64 `json:"services"`
	Active         bool    `json:"active"`
}

type appointmentView struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	EmployeeID int64     `json:"employee_id"`
	ServiceID  int64     `json:"service_id"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	EndTime    string    `json:"end_time"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type windowView struct {
	ID         int64  `json:"id"`
	EmployeeID int64  `json:"employee_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

func toAppointmentView(a domain.Appointment) appointmentView {
	return appointmentView{
		ID:         a.ID,
		UserID:     a.UserID,
		EmployeeID: a.EmployeeID,
		ServiceID:  a.ServiceID,
		Date:       a.Date.Format(domain.DateLayout),
		Time:       a.StartMinute.String(),
		EndTime:    a.EndMinute.String(),
		Status:     string(a.Status),
		Notes:      a.Notes,
		CreatedAt:  a.CreatedAt,
	}
}

func toWindowView(w domain.AvailabilityWindow) windowView {
	return windowView{
		ID:         w.ID,
		EmployeeID: w.EmployeeID,
		Date:       w.Date.Format(domain.DateLayout),
		StartTime:  w.StartMinute.String(),
		EndTime:    w.EndMinute.String(),
	}
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.booking.Services(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	out := make([]serviceView, 0, len(services))
	for _, svc := range services {
		out = append(out, serviceView{
			ID:          svc.ID,
			Name:        svc.Name,
			Description: svc.Description,
			Duration:    svc.DurationMinutes,
			Active:      svc.Active,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	var serviceID int64
	if raw := r.URL.Query().Get("service_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "service_id must be an integer", "malformed_input")
			return
		}
		serviceID = parsed
	}

	employees, err := s.booking.Employees(r.Context(), serviceID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	out := make([]employeeView, 0, len(employees))
	for _, emp := range employees {
		out = append(out, employeeView{
			ID:             emp.ID,
			Name:           emp.Name,
			Specialization: emp.Specialization,
			Services:       emp.ServiceIDs,
			Active:         emp.Active,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAvailableSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	employeeID, err := strconv.ParseInt(q.Get("employee_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "employee_id must be an integer", "malformed_input")
		return
	}
	serviceID, err := strconv.ParseInt(q.Get("service_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "service_id must be an integer", "malformed_input")
		return
	}
	date, err := domain.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", "malformed_input")
		return
	}

	slots, err := s.booking.FindSlots(r.Context(), employeeID, serviceID, date)
	if err != nil {
		if !writeServiceError(w, err) {
			s.serverError(w, r, err)
		}
		return
	}
	out := make([]string, 0, len(slots))
	for _, t := range slots {
		out = append(out, t.String())
	}
	writeJSON(w, http.StatusOK, out)
}

type createAppointmentRequest struct {
	EmployeeID int64  `json:"employee_id"`
	ServiceID  int64  `json:"service_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Notes      string `json:"notes"`
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity", "unauthorized")
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "malformed_input")
		return
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", "malformed_input")
		return
	}
	start, err := domain.ParseClock(req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, "time must be HH:MM", "malformed_input")
		return
	}

	appt, err := s.booking.Book(r.Context(), booking.BookInput{
		UserID:     ident.UserID,
		EmployeeID: req.EmployeeID,
		ServiceID:  req.ServiceID,
		Date:       date,
		Start:      start,
		Notes:      req.Notes,
	})
	if err != nil {
		if !writeServiceError(w, err) {
			s.serverError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentView(appt))
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity", "unauthorized")
		return
	}

	var filter store.ListFilter
	q := r.URL.Query()
	if raw := q.Get("date"); raw != "" {
		from, err := domain.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", "malformed_input")
			return
		}
		filter.From = from
		// A lone date means that exact day, not "from that day onward".
		filter.To = from
	}
	if raw := q.Get("end_date"); raw != "" {
		to, err := domain.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD", "malformed_input")
			return
		}
		filter.To = to
	}

	appts, err := s.booking.List(r.Context(), ident.Scope(), filter)
	if err != nil {
		if !writeServiceError(w, err) {
			s.serverError(w, r, err)
		}
		return
	}
	out := make([]appointmentView, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentView(a))
	}
	writeJSON(w, http.StatusOK, out)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "appointment id must be a UUID", "malformed_input")
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "malformed_input")
		return
	}

	appt, err := s.booking.UpdateStatus(r.Context(), id, domain.AppointmentStatus(req.Status))
	if err != nil {
		if !writeServiceError(w, err) {
			s.serverError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentView(appt))
}

type addWindowRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (s *Server) handleAddWindow(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "employee id must be an integer", "malformed_input")
		return
	}
	var req addWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "malformed_input")
		return
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", "malformed_input")
		return
	}
	start, err := domain.ParseClock(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_time must be HH:MM", "malformed_input")
		return
	}
	end, err := domain.ParseClock(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_time must be HH:MM", "malformed_input")
		return
	}

	window, err := s.booking.AddWindow(r.Context(), booking.WindowInput{
		EmployeeID: employeeID,
		Date:       date,
		Start:      start,
		End:        end,
	})
	if err != nil {
		if !writeServiceError(w, err) {
			s.serverError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, toWindowView(window))
}

func (s *Server) handleListWindows(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "employee id must be an integer", "malformed_input")
		return
	}
	date, err := domain.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", "malformed_input")
		return
	}

	windows, err := s.booking.WindowsFor(r.Context(), employeeID, date)
	if err != nil {
		if !writeServiceError(w, err) {
			s.serverError(w, r, err)
		}
		return
	}
	out := make([]windowView, 0, len(windows))
	for _, win := range windows {
		out = append(out, toWindowView(win))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusServiceUnavailable, "request cancelled", "cancelled")
		return
	}
	s.log.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestIDFrom(r.Context()),
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "internal error", "internal")
}
