package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/dentalcare/clinic-api/internal/auth"
	"github.com/dentalcare/clinic-api/internal/clinical"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("invalid role")
	ErrMissingFields      = errors.New("email, password and name are required")
	ErrNotAPatient        = errors.New("user is not a patient")
)

// defaultDoctorSchedule mirrors the clinic's standard working week for newly
// registered doctors.
var defaultDoctorSchedule = json.RawMessage(`{"monday":{"start":"08:00","end":"14:00"},"tuesday":{"start":"08:00","end":"14:00"},"wednesday":{"start":"08:00","end":"14:00"},"thursday":{"start":"08:00","end":"14:00"},"friday":{"start":"08:00","end":"14:00"}}`)

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     auth.Role
}

type PatientInput struct {
	Email     string
	Password  string
	Name      string
	Phone     string
	BirthDate *time.Time
	Address   string
	Allergies string
}

type PatientUpdate struct {
	Name      *string
	Email     *string
	Phone     *string
	BirthDate *time.Time
	Address   *string
	Allergies *string
}

// recentRecordCount is how many of a patient's latest clinical snapshots ride
// along on the user detail view.
const recentRecordCount = 5

// RecordReader surfaces a patient's most recent clinical snapshots for the
// user detail view. clinical.Repository satisfies it.
type RecordReader interface {
	ListSnapshots(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]clinical.Snapshot, error)
}

type Service struct {
	repo    Repository
	records RecordReader
	tokens  *auth.TokenIssuer
	log     zerolog.Logger
}

func NewService(repo Repository, records RecordReader, tokens *auth.TokenIssuer, log zerolog.Logger) *Service {
	return &Service{repo: repo, records: records, tokens: tokens, log: log}
}

// Register creates a user plus the profile its role carries and returns a
// signed access token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return nil, "", ErrMissingFields
	}
	if !in.Role.Valid() {
		return nil, "", ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         in.Name,
		Phone:        in.Phone,
		Role:         in.Role,
		Avatar:       "🧑",
	}

	var patient *PatientProfile
	var doctor *DoctorProfile
	switch in.Role {
	case auth.RolePatient:
		patient = &PatientProfile{}
	case auth.RoleDoctor:
		doctor = &DoctorProfile{Specialty: "General Dentist", Schedule: defaultDoctorSchedule}
	}

	created, err := s.repo.CreateUser(ctx, u, patient, doctor)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(created.ID, created.Role)
	if err != nil {
		return nil, "", err
	}

	s.log.Info().Str("user_id", created.ID.String()).Str("role", string(created.Role)).Msg("user registered")
	return created, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}

func (s *Service) ListUsers(ctx context.Context, actor auth.Actor, role auth.Role) ([]User, error) {
	if err := auth.Authorize(actor, auth.OpListUsers, uuid.Nil); err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns a user with its role profile. A patient account also carries
// the last few clinical snapshots, newest first. Patients may only read
// themselves.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Account, error) {
	if err := auth.Authorize(actor, auth.OpListUsers, id); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	acct := &Account{User: *u}
	switch u.Role {
	case auth.RolePatient:
		if p, err := s.repo.GetPatientProfile(ctx, u.ID); err == nil {
			acct.Patient = p
		}
		recs, err := s.records.ListSnapshots(ctx, u.ID, recentRecordCount, 0)
		if err != nil {
			return nil, fmt.Errorf("list recent records: %w", err)
		}
		acct.Records = recs
	case auth.RoleDoctor:
		if d, err := s.repo.GetDoctorProfile(ctx, u.ID); err == nil {
			acct.Doctor = d
		}
	}

	return acct, nil
}

// CreatePatient registers a patient on behalf of the front desk.
func (s *Service) CreatePatient(ctx context.Context, actor auth.Actor, in PatientInput) (*User, error) {
	if err := auth.Authorize(actor, auth.OpManagePatients, uuid.Nil); err != nil {
		return nil, err
	}
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         in.Name,
		Phone:        in.Phone,
		Role:         auth.RolePatient,
		Avatar:       "🧑",
	}
	profile := &PatientProfile{
		BirthDate: in.BirthDate,
		Address:   in.Address,
		Allergies: in.Allergies,
	}

	return s.repo.CreateUser(ctx, u, profile, nil)
}

func (s *Service) UpdatePatient(ctx context.Context, actor auth.Actor, id uuid.UUID, in PatientUpdate) (*Account, error) {
	if err := auth.Authorize(actor, auth.OpManagePatients, uuid.Nil); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != auth.RolePatient {
		return nil, ErrNotAPatient
	}

	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if _, err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, err
	}

	profile, err := s.repo.GetPatientProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.BirthDate != nil {
		profile.BirthDate = in.BirthDate
	}
	if in.Address != nil {
		profile.Address = *in.Address
	}
	if in.Allergies != nil {
		profile.Allergies = *in.Allergies
	}
	if err := s.repo.UpdatePatientProfile(ctx, profile); err != nil {
		return nil, err
	}

	return s.Get(ctx, actor, id)
}

// DeletePatient removes a patient account. Staff accounts cannot be deleted
// through this path.
func (s *Service) DeletePatient(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := auth.Authorize(actor, auth.OpManagePatients, uuid.Nil); err != nil {
		return err
	}

	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Role != auth.RolePatient {
		return ErrNotAPatient
	}

	return s.repo.DeleteUser(ctx, id)
}
