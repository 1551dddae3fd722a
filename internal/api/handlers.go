package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/slotwise/booking-engine/internal/booking"
	"github.com/slotwise/booking-engine/internal/catalog"
	"github.com/slotwise/booking-engine/internal/interval"
	"github.com/slotwise/booking-engine/internal/schedule"
)

const dateLayout = "2006-01-02"

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

func parseTimeOfDay(w http.ResponseWriter, raw, field string) (interval.TimeOfDay, bool) {
	t, err := interval.ParseTimeOfDay(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+field, field+" must be HH:MM")
		return 0, false
	}
	return t, true
}

// handleBookingError maps the lifecycle error taxonomy onto HTTP statuses.
// Slot errors tell the caller to re-fetch free slots: the set may have
// changed under them.
func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrAppointmentNotFound),
		errors.Is(err, catalog.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", "requested time is no longer free, re-fetch free slots")
	case errors.Is(err, booking.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", "another booking won this slot, re-fetch free slots and retry")
	case errors.Is(err, booking.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_for_current_state", err.Error())
	case errors.Is(err, booking.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, booking.ErrServiceNotOffered):
		writeError(w, http.StatusUnprocessableEntity, "service_not_offered", err.Error())
	case errors.Is(err, booking.ErrInvalidParty):
		writeError(w, http.StatusUnprocessableEntity, "invalid_party", err.Error())
	case errors.Is(err, interval.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:         a.ID,
		ProviderID: a.ProviderID,
		WorkerID:   a.WorkerID,
		ServiceID:  a.ServiceID,
		Date:       a.Date.Format(dateLayout),
		Start:      a.Start.String(),
		End:        a.End.String(),
		Status:     string(a.Status),
		CustomerID: a.CustomerID,
		GuestID:    a.GuestID,
		BookedAt:   a.BookedAt,
	}
}

func freeSlotsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workerID, ok := parseUUIDParam(w, r, "workerID")
		if !ok {
			return
		}
		serviceID, err := uuid.Parse(r.URL.Query().Get("service_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}
		date, ok := parseDate(w, r.URL.Query().Get("date"))
		if !ok {
			return
		}

		slots, err := svc.GetFreeSlots(r.Context(), workerID, serviceID, date)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		out := make([]string, 0, len(slots))
		for _, s := range slots {
			out = append(out, s.String())
		}
		writeJSON(w, http.StatusOK, FreeSlotsResponse{
			WorkerID:  workerID,
			ServiceID: serviceID,
			Date:      date.Format(dateLayout),
			Slots:     out,
		})
	}
}

func bookAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		actor, ok := GetPrincipal(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_principal", "no acting principal")
			return
		}

		workerID, _ := uuid.Parse(req.WorkerID)
		serviceID, _ := uuid.Parse(req.ServiceID)
		date, ok := parseDate(w, req.Date)
		if !ok {
			return
		}
		start, ok := parseTimeOfDay(w, req.Start, "start")
		if !ok {
			return
		}

		bookReq := booking.BookRequest{
			WorkerID:  workerID,
			ServiceID: serviceID,
			Date:      date,
			Start:     start,
		}
		if req.CustomerID != nil {
			id, _ := uuid.Parse(*req.CustomerID)
			bookReq.CustomerID = &id
		}
		if req.GuestID != nil {
			id, _ := uuid.Parse(*req.GuestID)
			bookReq.GuestID = &id
		}

		appt, err := svc.Book(r.Context(), actor, bookReq)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}
		var req RescheduleAppointmentRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		actor, ok := GetPrincipal(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_principal", "no acting principal")
			return
		}
		date, ok := parseDate(w, req.NewDate)
		if !ok {
			return
		}
		start, ok := parseTimeOfDay(w, req.NewStart, "new_start")
		if !ok {
			return
		}

		appt, err := svc.Reschedule(r.Context(), actor, id, date, start)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func transitionHandler(fn func(r *http.Request, id uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}
		if err := fn(r, id); err != nil {
			handleBookingError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}
		actor, ok := GetPrincipal(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_principal", "no acting principal")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), actor, id)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func historyHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}
		actor, ok := GetPrincipal(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_principal", "no acting principal")
			return
		}

		hist, err := svc.History(r.Context(), actor, id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		out := make([]HistoryEntryResponse, 0, len(hist))
		for _, h := range hist {
			var old *string
			if h.OldStatus != nil {
				s := string(*h.OldStatus)
				old = &s
			}
			out = append(out, HistoryEntryResponse{
				OldStatus: old,
				NewStatus: string(h.NewStatus),
				ChangedAt: h.ChangedAt,
				ChangedBy: h.ChangedBy,
				System:    h.ChangedBy == uuid.Nil,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// Schedule administration. Staff roles only, and only on workers of their
// own provider; customers and workers read availability through the slots
// endpoint.

func requireProviderStaff(w http.ResponseWriter, r *http.Request, cat catalog.Catalog, workerID uuid.UUID) bool {
	p, ok := GetPrincipal(r.Context())
	if !ok || !p.IsProviderStaff() {
		writeError(w, http.StatusForbidden, "forbidden", "schedule administration requires a staff role")
		return false
	}

	providerID, err := cat.GetWorkerProvider(r.Context(), workerID)
	if err != nil {
		if errors.Is(err, catalog.ErrWorkerNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err.Error())
			return false
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return false
	}
	if providerID != p.ProviderID {
		writeError(w, http.StatusForbidden, "forbidden", "worker belongs to another provider")
		return false
	}
	return true
}

func setTemplateHandler(admin *schedule.Admin, cat catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workerID, ok := parseUUIDParam(w, r, "workerID")
		if !ok {
			return
		}
		if !requireProviderStaff(w, r, cat, workerID) {
			return
		}
		var req SetTemplateRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		start, ok := parseTimeOfDay(w, req.Start, "start")
		if !ok {
			return
		}
		end, ok := parseTimeOfDay(w, req.End, "end")
		if !ok {
			return
		}

		tpl, err := admin.SetWeeklyTemplate(r.Context(), workerID, time.Weekday(req.Weekday),
			interval.Window{Start: start, End: end}, time.Duration(req.BufferMinutes)*time.Minute)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": tpl.ID.String()})
	}
}

func setOverrideHandler(admin *schedule.Admin, cat catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workerID, ok := parseUUIDParam(w, r, "workerID")
		if !ok {
			return
		}
		if !requireProviderStaff(w, r, cat, workerID) {
			return
		}
		var req SetOverrideRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		date, ok := parseDate(w, req.Date)
		if !ok {
			return
		}
		start, ok := parseTimeOfDay(w, req.Start, "start")
		if !ok {
			return
		}
		end, ok := parseTimeOfDay(w, req.End, "end")
		if !ok {
			return
		}

		o, err := admin.SetDateOverride(r.Context(), workerID, date,
			interval.Window{Start: start, End: end}, time.Duration(req.BufferMinutes)*time.Minute)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": o.ID.String()})
	}
}

func deleteOverrideHandler(admin *schedule.Admin, cat catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workerID, ok := parseUUIDParam(w, r, "workerID")
		if !ok {
			return
		}
		if !requireProviderStaff(w, r, cat, workerID) {
			return
		}
		date, ok := parseDate(w, chi.URLParam(r, "date"))
		if !ok {
			return
		}

		if err := admin.RemoveDateOverride(r.Context(), workerID, date); err != nil {
			if errors.Is(err, schedule.ErrOverrideNotFound) {
				writeError(w, http.StatusNotFound, "not_found", err.Error())
				return
			}
			handleBookingError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func addBreakHandler(admin *schedule.Admin, cat catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workerID, ok := parseUUIDParam(w, r, "workerID")
		if !ok {
			return
		}
		if !requireProviderStaff(w, r, cat, workerID) {
			return
		}
		var req AddBreakRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		date, ok := parseDate(w, req.Date)
		if !ok {
			return
		}
		start, ok := parseTimeOfDay(w, req.Start, "start")
		if !ok {
			return
		}
		end, ok := parseTimeOfDay(w, req.End, "end")
		if !ok {
			return
		}

		b, err := admin.AddBreak(r.Context(), workerID, date, interval.Window{Start: start, End: end})
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": b.ID.String()})
	}
}

func deleteBreakHandler(admin *schedule.Admin, cat catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workerID, ok := parseUUIDParam(w, r, "workerID")
		if !ok {
			return
		}
		if !requireProviderStaff(w, r, cat, workerID) {
			return
		}
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		if err := admin.RemoveBreak(r.Context(), workerID, id); err != nil {
			if errors.Is(err, schedule.ErrBreakNotFound) {
				writeError(w, http.StatusNotFound, "not_found", err.Error())
				return
			}
			handleBookingError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
