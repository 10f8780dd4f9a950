package api

import (
	"encoding/json"
	"net/http"

	"github.com/dentalcare/clinic-api/internal/inventory"
)

func createMedicineHandler(svc *inventory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		var req CreateMedicineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		m, err := svc.Create(r.Context(), actor, inventory.Medicine{
			Name:       req.Name,
			Category:   req.Category,
			Stock:      req.Stock,
			MinStock:   req.MinStock,
			Unit:       req.Unit,
			ExpiryDate: req.ExpiryDate,
			Price:      req.Price,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicineResponse(m))
	}
}

func listMedicinesHandler(svc *inventory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		category := r.URL.Query().Get("category")
		lowStock := r.URL.Query().Get("low_stock") == "true"

		medicines, err := svc.List(r.Context(), actor, category, lowStock)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]MedicineResponse, 0, len(medicines))
		for i := range medicines {
			resp = append(resp, toMedicineResponse(&medicines[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func adjustStockHandler(svc *inventory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_medicine_id", "id must be a valid UUID")
			return
		}

		var req AdjustStockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		m, err := svc.AdjustStock(r.Context(), actor, id, req.Change, req.Reason)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toMedicineResponse(m))
	}
}
