package api

import (
	"encoding/json"
	"net/http"

	"github.com/dentalcare/clinic-api/internal/clinical"
)

func createRecordHandler(svc *clinical.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		patientID, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		var req CreateRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		delta := make(clinical.Odontogram, len(req.Odontogram))
		for code, cond := range req.Odontogram {
			delta[code] = clinical.Condition(cond)
		}

		snap, err := svc.Append(r.Context(), actor, patientID, clinical.AppendInput{
			Diagnosis: req.Diagnosis,
			Treatment: req.Treatment,
			Notes:     req.Notes,
			Cost:      req.Cost,
			Delta:     delta,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSnapshotResponse(snap))
	}
}

func currentOdontogramHandler(svc *clinical.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		patientID, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		chart, err := svc.CurrentOdontogram(r.Context(), actor, patientID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, OdontogramResponse{PatientID: patientID, Odontogram: chart})
	}
}

func recordHistoryHandler(svc *clinical.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		patientID, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		seq, err := svc.History(r.Context(), actor, patientID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]SnapshotResponse, 0)
		for snap, err := range seq {
			if err != nil {
				handleDomainError(w, err)
				return
			}
			resp = append(resp, toSnapshotResponse(snap))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func amendRecordHandler(svc *clinical.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_record_id", "id must be a valid UUID")
			return
		}

		var req AmendRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		snap, err := svc.Amend(r.Context(), actor, id, clinical.AmendFields{
			Diagnosis: req.Diagnosis,
			Treatment: req.Treatment,
			Notes:     req.Notes,
			Cost:      req.Cost,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSnapshotResponse(snap))
	}
}
