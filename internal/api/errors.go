package api

import (
	"errors"
	"net/http"

	"github.com/dentalcare/clinic-api/internal/account"
	"github.com/dentalcare/clinic-api/internal/auth"
	"github.com/dentalcare/clinic-api/internal/billing"
	"github.com/dentalcare/clinic-api/internal/booking"
	"github.com/dentalcare/clinic-api/internal/clinical"
	"github.com/dentalcare/clinic-api/internal/inventory"
	"github.com/dentalcare/clinic-api/internal/notification"
	redisclient "github.com/dentalcare/clinic-api/internal/redis"
)

// handleDomainError maps domain failures onto transport codes: conflicts 409,
// authorization 403, absent entities 404, bad input 400, everything else 500.
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked),
		errors.Is(err, clinical.ErrRecordBeingWritten),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "resource_busy", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, billing.ErrInvoicePaid):
		writeError(w, http.StatusConflict, "invoice_paid", err.Error())
	case errors.Is(err, account.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())

	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, booking.ErrPatientNotFound),
		errors.Is(err, booking.ErrDoctorNotFound),
		errors.Is(err, booking.ErrReservationNotFound),
		errors.Is(err, clinical.ErrPatientNotFound),
		errors.Is(err, clinical.ErrSnapshotNotFound),
		errors.Is(err, billing.ErrPatientNotFound),
		errors.Is(err, billing.ErrInvoiceNotFound),
		errors.Is(err, inventory.ErrMedicineNotFound),
		errors.Is(err, notification.ErrNotificationNotFound),
		errors.Is(err, account.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, booking.ErrInvalidSlot),
		errors.Is(err, booking.ErrDateInPast),
		errors.Is(err, clinical.ErrInvalidToothCode),
		errors.Is(err, clinical.ErrInvalidCondition),
		errors.Is(err, clinical.ErrNothingToAmend),
		errors.Is(err, billing.ErrNoItems),
		errors.Is(err, inventory.ErrStockDepleted),
		errors.Is(err, inventory.ErrMissingFields),
		errors.Is(err, account.ErrMissingFields),
		errors.Is(err, account.ErrInvalidRole),
		errors.Is(err, account.ErrNotAPatient):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.Is(err, account.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())

	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
