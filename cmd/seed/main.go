package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/dentalcare/clinic-api/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	// A single hash for all seed accounts keeps seeding fast. The password
	// for every generated user is "password123".
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	if err := seedAdmin(context.Background(), pool, string(hash)); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seedDoctors(context.Background(), pool, string(hash), 10); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, string(hash), 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedMedicines(context.Background(), pool, 40); err != nil {
		log.Fatalf("seed medicines: %v", err)
	}

	log.Println("seed complete")
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, hash string) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'admin', now(), now())
		ON CONFLICT (email) DO NOTHING
	`, uuid.New(), "admin@clinic.local", hash, "Clinic Admin", gofakeit.Phone())
	if err != nil {
		return err
	}

	log.Println("admin seeded (admin@clinic.local)")
	return nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, hash string, count int) error {
	log.Printf("seeding %d doctors", count)

	specialties := []string{
		"General Dentist",
		"Orthodontics",
		"Periodontics",
		"Endodontics",
		"Oral Surgery",
		"Pediatric Dentistry",
		"Prosthodontics",
	}

	schedule, err := json.Marshal(map[string]string{
		"monday":    "08:00-14:30",
		"tuesday":   "08:00-14:30",
		"wednesday": "08:00-14:30",
		"thursday":  "08:00-14:30",
		"friday":    "08:00-11:30",
	})
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, password_hash, name, phone, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 'doctor', now(), now())
		`, id, gofakeit.Email(), hash, "drg. "+gofakeit.Name(), gofakeit.Phone())
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO doctor_profiles (user_id, specialty, schedule)
			VALUES ($1, $2, $3)
		`, id, spec, schedule)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("doctors seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, hash string, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			birth := gofakeit.DateRange(
				time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
			)

			_, err := tx.Exec(ctx, `
				INSERT INTO users (id, email, password_hash, name, phone, role, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, 'patient', now(), now())
			`, id, gofakeit.Email(), hash, gofakeit.Name(), gofakeit.Phone())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO patient_profiles (user_id, birth_date, address, allergies)
				VALUES ($1, $2, $3, $4)
			`, id, birth, gofakeit.Address().Address, "")
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}

func seedMedicines(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d medicines", count)

	categories := []string{"Analgesic", "Antibiotic", "Anesthetic", "Antiseptic", "Supplement"}
	units := []string{"tablet", "bottle", "tube", "ampoule", "box"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		_, err := tx.Exec(ctx, `
			INSERT INTO medicines (id, name, category, stock, min_stock, unit, expiry_date, price, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		`,
			uuid.New(),
			gofakeit.ProductName(),
			categories[gofakeit.Number(0, len(categories)-1)],
			gofakeit.Number(5, 200),
			gofakeit.Number(5, 20),
			units[gofakeit.Number(0, len(units)-1)],
			gofakeit.DateRange(time.Now(), time.Now().AddDate(3, 0, 0)),
			int64(gofakeit.Number(5, 500))*1000,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("medicines seeded")
	return nil
}
