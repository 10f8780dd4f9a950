package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalcare/clinic-api/internal/account"
	"github.com/dentalcare/clinic-api/internal/auth"
	"github.com/dentalcare/clinic-api/internal/billing"
	"github.com/dentalcare/clinic-api/internal/booking"
	"github.com/dentalcare/clinic-api/internal/clinical"
	"github.com/dentalcare/clinic-api/internal/inventory"
)

func TestHandleDomainError(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{booking.ErrSlotTaken, http.StatusConflict, "slot_conflict"},
		{booking.ErrSlotBeingBooked, http.StatusConflict, "resource_busy"},
		{clinical.ErrRecordBeingWritten, http.StatusConflict, "resource_busy"},
		{booking.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{billing.ErrInvoicePaid, http.StatusConflict, "invoice_paid"},
		{account.ErrEmailTaken, http.StatusConflict, "email_taken"},
		{auth.ErrForbidden, http.StatusForbidden, "forbidden"},
		{booking.ErrReservationNotFound, http.StatusNotFound, "not_found"},
		{clinical.ErrSnapshotNotFound, http.StatusNotFound, "not_found"},
		{billing.ErrInvoiceNotFound, http.StatusNotFound, "not_found"},
		{inventory.ErrMedicineNotFound, http.StatusNotFound, "not_found"},
		{account.ErrUserNotFound, http.StatusNotFound, "not_found"},
		{booking.ErrInvalidSlot, http.StatusBadRequest, "invalid_request"},
		{booking.ErrDateInPast, http.StatusBadRequest, "invalid_request"},
		{clinical.ErrInvalidToothCode, http.StatusBadRequest, "invalid_request"},
		{inventory.ErrStockDepleted, http.StatusBadRequest, "invalid_request"},
		{account.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{errors.New("pool exhausted"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.wantCode+"/"+tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleDomainError(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantCode, body.Error)
			assert.NotEmpty(t, body.Details)
		})
	}
}

func TestHandleDomainErrorWrappedErrors(t *testing.T) {
	// Services wrap repository errors; the mapping must see through the wrap.
	wrapped := errors.Join(errors.New("propose reservation"), booking.ErrSlotTaken)

	rec := httptest.NewRecorder()
	handleDomainError(rec, wrapped)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
