package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalcare/clinic-api/internal/booking"
	"github.com/dentalcare/clinic-api/internal/config"
	"github.com/dentalcare/clinic-api/internal/db"
)

// The simulator hammers a small set of (doctor, date, slot) tuples from many
// concurrent workers and verifies that each tuple ends up with exactly one
// winning reservation.

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	DoctorLimit int
	Password    string
	PostgresDSN string
}

type target struct {
	DoctorID string
	Date     string
	Slot     string
}

type tokenPool struct {
	mu     sync.RWMutex
	tokens []string
}

func (tp *tokenPool) Add(token string) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.tokens = append(tp.tokens, token)
}

func (tp *tokenPool) Random(rng *rand.Rand) string {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.tokens[rng.Intn(len(tp.tokens))]
}

type Metrics struct {
	Total    int64
	Created  int64
	Conflict int64
	Error    int64

	mu        sync.Mutex
	latencies []time.Duration
	winners   map[target]int64
}

func (m *Metrics) Record(t target, latency time.Duration, status int, err error) {
	atomic.AddInt64(&m.Total, 1)
	switch {
	case err == nil && status == http.StatusCreated:
		atomic.AddInt64(&m.Created, 1)
		m.mu.Lock()
		m.winners[t]++
		m.mu.Unlock()
	case err == nil && status == http.StatusConflict:
		atomic.AddInt64(&m.Conflict, 1)
	default:
		atomic.AddInt64(&m.Error, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *Metrics) LatencyStats() (avg, p50, p95 time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(m.latencies))
	copy(latencies, m.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	return avg, p50, p95
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadSimConfig()
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required (set in .env or environment)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	targets, err := loadTargets(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load targets: %v", err)
	}
	log.Printf("contending over %d (doctor, date, slot) tuples", len(targets))

	client := &http.Client{Timeout: 10 * time.Second}

	tokens, err := loginPatients(ctx, pgPool, client, cfg, 20)
	if err != nil {
		log.Fatalf("login patients: %v", err)
	}

	metrics := &Metrics{winners: make(map[target]int64)}

	runCtx, stop := context.WithTimeout(context.Background(), cfg.Duration)
	defer stop()

	log.Printf("running %d workers for %s", cfg.Workers, cfg.Duration)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
			for {
				select {
				case <-runCtx.Done():
					return
				default:
					attemptBooking(runCtx, client, cfg, targets[rng.Intn(len(targets))], tokens, metrics, rng)
				}
			}
		}(i)
	}
	wg.Wait()

	printReport(cfg, targets, metrics)
}

func loadSimConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	return SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 20),
		DoctorLimit: getInt("SIM_DOCTOR_LIMIT", 3),
		Password:    getEnv("SIM_PASSWORD", "password123"),
		PostgresDSN: baseCfg.PostgresDSN,
	}
}

// loadTargets builds the contended tuple set: a few doctors, tomorrow's date,
// every bookable slot of the day.
func loadTargets(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) ([]target, error) {
	rows, err := pool.Query(ctx, `
		SELECT id FROM users WHERE role = 'doctor' LIMIT $1
	`, cfg.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	defer rows.Close()

	var doctorIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		doctorIDs = append(doctorIDs, id)
	}
	if len(doctorIDs) == 0 {
		return nil, fmt.Errorf("no doctors found, run the seed first")
	}

	date := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	var targets []target
	for _, doctorID := range doctorIDs {
		for _, slot := range booking.Slots() {
			targets = append(targets, target{DoctorID: doctorID, Date: date, Slot: slot})
		}
	}
	return targets, nil
}

func loginPatients(ctx context.Context, pool *pgxpool.Pool, client *http.Client, cfg SimConfig, count int) (*tokenPool, error) {
	rows, err := pool.Query(ctx, `
		SELECT email FROM users WHERE role = 'patient' LIMIT $1
	`, count)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	if len(emails) == 0 {
		return nil, fmt.Errorf("no patients found, run the seed first")
	}

	tp := &tokenPool{}
	for _, email := range emails {
		body, _ := json.Marshal(map[string]string{"email": email, "password": cfg.Password})
		req, err := http.NewRequestWithContext(ctx, "POST", cfg.APIBaseURL+"/auth/login", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("login %s: %w", email, err)
		}
		var authResp struct {
			Token string `json:"token"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&authResp)
		resp.Body.Close()
		if decodeErr != nil || resp.StatusCode != http.StatusOK || authResp.Token == "" {
			return nil, fmt.Errorf("login %s failed with status %d", email, resp.StatusCode)
		}
		tp.Add(authResp.Token)
	}

	log.Printf("logged in %d patients", len(emails))
	return tp, nil
}

func attemptBooking(ctx context.Context, client *http.Client, cfg SimConfig, t target, tokens *tokenPool, metrics *Metrics, rng *rand.Rand) {
	body, _ := json.Marshal(map[string]string{
		"doctor_id": t.DoctorID,
		"date":      t.Date,
		"slot":      t.Slot,
	})

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.APIBaseURL+"/reservations", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokens.Random(rng))

	resp, err := client.Do(req)
	latency := time.Since(start)

	status := 0
	if err == nil {
		status = resp.StatusCode
		resp.Body.Close()
	}

	metrics.Record(t, latency, status, err)
}

func printReport(cfg SimConfig, targets []target, metrics *Metrics) {
	total := atomic.LoadInt64(&metrics.Total)
	created := atomic.LoadInt64(&metrics.Created)
	conflict := atomic.LoadInt64(&metrics.Conflict)
	errCount := atomic.LoadInt64(&metrics.Error)

	avg, p50, p95 := metrics.LatencyStats()

	fmt.Println()
	fmt.Println("SIMULATION REPORT")
	fmt.Printf("Duration: %s  Workers: %d  Tuples: %d\n", cfg.Duration, cfg.Workers, len(targets))
	fmt.Printf("Requests: %d\n", total)
	if total > 0 {
		fmt.Printf("  Created:   %d (%.1f%%)\n", created, float64(created)/float64(total)*100)
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
		fmt.Printf("  Errors:    %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("Latency: avg=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond), p95.Round(time.Millisecond))

	// A (doctor, date, slot) tuple must never be won more than once.
	overbooked := 0
	metrics.mu.Lock()
	for t, n := range metrics.winners {
		if n > 1 {
			overbooked++
			fmt.Printf("OVERBOOKED: doctor=%s date=%s slot=%s wins=%d\n", t.DoctorID, t.Date, t.Slot, n)
		}
	}
	metrics.mu.Unlock()

	if overbooked == 0 {
		fmt.Println("No double bookings detected.")
	} else {
		fmt.Printf("%d tuples were double booked!\n", overbooked)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
