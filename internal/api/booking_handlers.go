package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dentalcare/clinic-api/internal/booking"
)

func createReservationHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		var req CreateReservationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		// Patients book for themselves; staff must name the patient.
		patientID := actor.ID
		if req.PatientID != "" {
			patientID, err = uuid.Parse(req.PatientID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
		}

		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		res, err := svc.Propose(r.Context(), actor, patientID, doctorID, date, req.Slot, req.Note)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toReservationResponse(res))
	}
}

func dayScheduleHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		doctorID, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date query parameter must be YYYY-MM-DD")
			return
		}

		schedule, err := svc.DaySchedule(r.Context(), actor, doctorID, date)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DayScheduleResponse{
			Date:           date.Format("2006-01-02"),
			AvailableSlots: schedule.Available,
			BookedSlots:    schedule.Booked,
		})
	}
}

func listReservationsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		var f booking.ListFilter
		if status := r.URL.Query().Get("status"); status != "" {
			f.Status = booking.Status(status)
		}
		if rawDate := r.URL.Query().Get("date"); rawDate != "" {
			date, err := time.Parse("2006-01-02", rawDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date query parameter must be YYYY-MM-DD")
				return
			}
			f.Date = date
		}

		list, err := svc.List(r.Context(), actor, f)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]ReservationResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toReservationResponse(&list[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getReservationHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_reservation_id", "id must be a valid UUID")
			return
		}

		res, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

func transitionHandler(svc *booking.Service, target booking.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_reservation_id", "id must be a valid UUID")
			return
		}

		res, err := svc.Transition(r.Context(), actor, id, target)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}
