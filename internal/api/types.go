package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/dentalcare/clinic-api/internal/account"
	"github.com/dentalcare/clinic-api/internal/billing"
	"github.com/dentalcare/clinic-api/internal/booking"
	"github.com/dentalcare/clinic-api/internal/clinical"
	"github.com/dentalcare/clinic-api/internal/inventory"
	"github.com/dentalcare/clinic-api/internal/notification"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// --- auth / accounts ---

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Patient *PatientProfileResponse `json:"patient_profile,omitempty"`
	Doctor  *DoctorProfileResponse  `json:"doctor_profile,omitempty"`
	Records []SnapshotResponse      `json:"medical_records,omitempty"`
}

type PatientProfileResponse struct {
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Address   string     `json:"address,omitempty"`
	Allergies string     `json:"allergies,omitempty"`
	LastVisit *time.Time `json:"last_visit,omitempty"`
	NextVisit *time.Time `json:"next_visit,omitempty"`
}

type DoctorProfileResponse struct {
	Specialty string `json:"specialty"`
	Schedule  any    `json:"schedule,omitempty"`
}

type CreatePatientRequest struct {
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Address   string     `json:"address,omitempty"`
	Allergies string     `json:"allergies,omitempty"`
}

type UpdatePatientRequest struct {
	Name      *string    `json:"name,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Address   *string    `json:"address,omitempty"`
	Allergies *string    `json:"allergies,omitempty"`
}

func toUserResponse(u *account.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      string(u.Role),
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

func toAccountResponse(a *account.Account) UserResponse {
	resp := toUserResponse(&a.User)
	if a.Patient != nil {
		resp.Patient = &PatientProfileResponse{
			BirthDate: a.Patient.BirthDate,
			Address:   a.Patient.Address,
			Allergies: a.Patient.Allergies,
			LastVisit: a.Patient.LastVisit,
			NextVisit: a.Patient.NextVisit,
		}
	}
	if a.Doctor != nil {
		resp.Doctor = &DoctorProfileResponse{
			Specialty: a.Doctor.Specialty,
			Schedule:  a.Doctor.Schedule,
		}
	}
	for i := range a.Records {
		resp.Records = append(resp.Records, toSnapshotResponse(&a.Records[i]))
	}
	return resp
}

// --- booking ---

type CreateReservationRequest struct {
	PatientID string `json:"patient_id,omitempty"`
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Slot      string `json:"slot"` // HH:MM
	Note      string `json:"note,omitempty"`
}

type ReservationResponse struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"`
	Slot      string    `json:"slot"`
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type DayScheduleResponse struct {
	Date           string   `json:"date"`
	AvailableSlots []string `json:"available_slots"`
	BookedSlots    []string `json:"booked_slots"`
}

func toReservationResponse(r *booking.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:        r.ID,
		PatientID: r.PatientID,
		DoctorID:  r.DoctorID,
		Date:      r.DateString(),
		Slot:      r.Slot,
		Status:    string(r.Status),
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}
}

// --- clinical ---

type CreateRecordRequest struct {
	Diagnosis  string            `json:"diagnosis"`
	Treatment  string            `json:"treatment"`
	Notes      string            `json:"notes,omitempty"`
	Cost       int64             `json:"cost"`
	Odontogram map[string]string `json:"odontogram,omitempty"` // delta: tooth code -> condition
}

type AmendRecordRequest struct {
	Diagnosis *string `json:"diagnosis,omitempty"`
	Treatment *string `json:"treatment,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	Cost      *int64  `json:"cost,omitempty"`
}

type SnapshotResponse struct {
	ID         uuid.UUID           `json:"id"`
	PatientID  uuid.UUID           `json:"patient_id"`
	VisitAt    time.Time           `json:"visit_at"`
	Diagnosis  string              `json:"diagnosis"`
	Treatment  string              `json:"treatment"`
	Notes      string              `json:"notes,omitempty"`
	Cost       int64               `json:"cost"`
	Odontogram clinical.Odontogram `json:"odontogram"`
}

type OdontogramResponse struct {
	PatientID  uuid.UUID           `json:"patient_id"`
	Odontogram clinical.Odontogram `json:"odontogram"`
}

func toSnapshotResponse(s *clinical.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:         s.ID,
		PatientID:  s.PatientID,
		VisitAt:    s.VisitAt,
		Diagnosis:  s.Diagnosis,
		Treatment:  s.Treatment,
		Notes:      s.Notes,
		Cost:       s.Cost,
		Odontogram: s.Odontogram,
	}
}

// --- billing ---

type CreateInvoiceRequest struct {
	PatientID string             `json:"patient_id"`
	Items     []billing.LineItem `json:"items"`
}

type InvoiceResponse struct {
	ID        uuid.UUID          `json:"id"`
	Number    string             `json:"number"`
	PatientID uuid.UUID          `json:"patient_id"`
	Items     []billing.LineItem `json:"items"`
	Total     int64              `json:"total"`
	IsPaid    bool               `json:"is_paid"`
	PaidAt    *time.Time         `json:"paid_at,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

func toInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:        inv.ID,
		Number:    inv.Number,
		PatientID: inv.PatientID,
		Items:     inv.Items,
		Total:     inv.Total,
		IsPaid:    inv.IsPaid,
		PaidAt:    inv.PaidAt,
		CreatedAt: inv.CreatedAt,
	}
}

// --- inventory ---

type CreateMedicineRequest struct {
	Name       string    `json:"name"`
	Category   string    `json:"category,omitempty"`
	Stock      int       `json:"stock"`
	MinStock   int       `json:"min_stock"`
	Unit       string    `json:"unit"`
	ExpiryDate time.Time `json:"expiry_date"`
	Price      int64     `json:"price"`
}

type AdjustStockRequest struct {
	Change int    `json:"change"`
	Reason string `json:"reason,omitempty"`
}

type MedicineResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category,omitempty"`
	Stock      int       `json:"stock"`
	MinStock   int       `json:"min_stock"`
	Unit       string    `json:"unit"`
	ExpiryDate time.Time `json:"expiry_date"`
	Price      int64     `json:"price"`
}

func toMedicineResponse(m *inventory.Medicine) MedicineResponse {
	return MedicineResponse{
		ID:         m.ID,
		Name:       m.Name,
		Category:   m.Category,
		Stock:      m.Stock,
		MinStock:   m.MinStock,
		Unit:       m.Unit,
		ExpiryDate: m.ExpiryDate,
		Price:      m.Price,
	}
}

// --- notifications ---

type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Category:  string(n.Category),
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
