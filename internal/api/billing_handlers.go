package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/dentalcare/clinic-api/internal/billing"
)

func createInvoiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		var req CreateInvoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		inv, err := svc.Create(r.Context(), actor, patientID, req.Items)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toInvoiceResponse(inv))
	}
}

func listInvoicesHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		var f billing.ListFilter
		if raw := r.URL.Query().Get("patient_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			f.PatientID = id
		}
		if raw := r.URL.Query().Get("is_paid"); raw != "" {
			paid := raw == "true"
			f.IsPaid = &paid
		}

		list, err := svc.List(r.Context(), actor, f)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]InvoiceResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toInvoiceResponse(&list[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getInvoiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_invoice_id", "id must be a valid UUID")
			return
		}

		inv, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}

func payInvoiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_invoice_id", "id must be a valid UUID")
			return
		}

		inv, err := svc.MarkPaid(r.Context(), actor, id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}

func deleteInvoiceHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_invoice_id", "id must be a valid UUID")
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "invoice deleted"})
	}
}
