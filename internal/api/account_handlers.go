package api

import (
	"encoding/json"
	"net/http"

	"github.com/dentalcare/clinic-api/internal/account"
	"github.com/dentalcare/clinic-api/internal/auth"
)

func listUsersHandler(svc *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		users, err := svc.ListUsers(r.Context(), actor, auth.Role(r.URL.Query().Get("role")))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]UserResponse, 0, len(users))
		for i := range users {
			resp = append(resp, toUserResponse(&users[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getUserHandler(svc *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "id must be a valid UUID")
			return
		}

		acct, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAccountResponse(acct))
	}
}

func createPatientHandler(svc *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		var req CreatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		user, err := svc.CreatePatient(r.Context(), actor, account.PatientInput{
			Email:     req.Email,
			Password:  req.Password,
			Name:      req.Name,
			Phone:     req.Phone,
			BirthDate: req.BirthDate,
			Address:   req.Address,
			Allergies: req.Allergies,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toUserResponse(user))
	}
}

func updatePatientHandler(svc *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "id must be a valid UUID")
			return
		}

		var req UpdatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		acct, err := svc.UpdatePatient(r.Context(), actor, id, account.PatientUpdate{
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			BirthDate: req.BirthDate,
			Address:   req.Address,
			Allergies: req.Allergies,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAccountResponse(acct))
	}
}

func deletePatientHandler(svc *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeletePatient(r.Context(), actor, id); err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "patient deleted"})
	}
}
