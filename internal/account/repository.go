package account

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dentalcare/clinic-api/internal/auth"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// CreateUser inserts the user and its role profile in one transaction.
	CreateUser(ctx context.Context, u *User, patient *PatientProfile, doctor *DoctorProfile) (*User, error)

	UpdateUser(ctx context.Context, u *User) (*User, error)
	UpdatePatientProfile(ctx context.Context, p *PatientProfile) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	ListUsers(ctx context.Context, role auth.Role) ([]User, error)
	GetPatientProfile(ctx context.Context, userID uuid.UUID) (*PatientProfile, error)
	GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error)
}
