package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/LongshotAI/ride-my-wheels-home/internal/errs"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
)

// PostgresStore backs the core with a transactional relational store. Ride
// acceptance and status advances are conditioned UPDATEs checked via
// RowsAffected, so correctness holds across multiple process instances.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Close() error { return p.db.Close() }

// DB exposes the handle for migrations run at startup.
func (p *PostgresStore) DB() *sql.DB { return p.db }

const rideColumns = `id, rider_id, COALESCE(driver_id, ''), pickup_address, pickup_lat, pickup_lng,
	dropoff_address, dropoff_lat, dropoff_lng, status, quoted_price_cents,
	distance_mi, duration_min, scheduled_for, created_at, updated_at`

func scanRide(row interface{ Scan(...any) error }) (*models.Ride, error) {
	var r models.Ride
	err := row.Scan(&r.ID, &r.RiderID, &r.DriverID, &r.Pickup.Address, &r.Pickup.Lat, &r.Pickup.Lng,
		&r.Dropoff.Address, &r.Dropoff.Lat, &r.Dropoff.Lng, &r.Status, &r.QuotedPriceCents,
		&r.DistanceMi, &r.DurationMin, &r.ScheduledFor, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *PostgresStore) CreateRide(ctx context.Context, r *models.Ride, ev *models.RideEvent) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO rides
		(id, rider_id, pickup_address, pickup_lat, pickup_lng, dropoff_address, dropoff_lat, dropoff_lng,
		 status, quoted_price_cents, distance_mi, duration_min, scheduled_for, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		r.ID, r.RiderID, r.Pickup.Address, r.Pickup.Lat, r.Pickup.Lng,
		r.Dropoff.Address, r.Dropoff.Lat, r.Dropoff.Lng,
		r.Status, r.QuotedPriceCents, r.DistanceMi, r.DurationMin, r.ScheduledFor, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return storageErr(err)
	}
	if ev != nil {
		if err := insertEvent(ctx, tx, ev); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr(err)
	}
	return nil
}

func (p *PostgresStore) GetRide(ctx context.Context, id string) (*models.Ride, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, id)
	r, err := scanRide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrRideNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return r, nil
}

func (p *PostgresStore) AssignDriver(ctx context.Context, rideID, driverID string, expect models.RideStatus, ev *models.RideEvent) (*models.Ride, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE rides SET driver_id = $1, status = $2, updated_at = $3 WHERE id = $4 AND status = $5`,
		driverID, models.StatusDriverAssigned, time.Now().UTC(), rideID, expect)
	if err != nil {
		return nil, storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, storageErr(err)
	}
	if n == 0 {
		// a concurrent acceptance won; nothing was written
		return nil, errs.ErrRideAlreadyAccepted
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, err
	}
	row := tx.QueryRowContext(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, rideID)
	r, err := scanRide(row)
	if err != nil {
		return nil, storageErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr(err)
	}
	return r, nil
}

func (p *PostgresStore) UpdateRideStatus(ctx context.Context, rideID string, from, to models.RideStatus, ev *models.RideEvent) (*models.Ride, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE rides SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, time.Now().UTC(), rideID, from)
	if err != nil {
		return nil, storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, storageErr(err)
	}
	if n == 0 {
		return nil, errs.ErrInvalidTransition
	}
	if ev != nil {
		if err := insertEvent(ctx, tx, ev); err != nil {
			return nil, err
		}
	}
	row := tx.QueryRowContext(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, rideID)
	r, err := scanRide(row)
	if err != nil {
		return nil, storageErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr(err)
	}
	return r, nil
}

func (p *PostgresStore) ActiveRideForDriver(ctx context.Context, driverID string) (*models.Ride, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+rideColumns+` FROM rides
		WHERE driver_id = $1 AND status = ANY($2) LIMIT 1`,
		driverID, pq.Array([]models.RideStatus{models.StatusDriverAssigned, models.StatusDriverArriving, models.StatusInProgress}))
	r, err := scanRide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return r, nil
}

const driverColumns = `id, status, online, background_check_status, current_lat, current_lng, last_gps_at, rating_avg, rating_count`

func scanDriver(row interface{ Scan(...any) error }) (*models.DriverProfile, error) {
	var d models.DriverProfile
	err := row.Scan(&d.ID, &d.Status, &d.Online, &d.BackgroundCheck,
		&d.CurrentLat, &d.CurrentLng, &d.LastGPSAt, &d.RatingAvg, &d.RatingCount)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (p *PostgresStore) GetDriver(ctx context.Context, id string) (*models.DriverProfile, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM driver_profiles WHERE id = $1`, id)
	d, err := scanDriver(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrDriverNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return d, nil
}

func (p *PostgresStore) ListEligibleDrivers(ctx context.Context) ([]models.DriverProfile, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+driverColumns+` FROM driver_profiles
		WHERE online = TRUE AND status = 'approved' AND background_check_status = 'clear'
		  AND current_lat IS NOT NULL AND current_lng IS NOT NULL
		ORDER BY id`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []models.DriverProfile
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

func (p *PostgresStore) UpdateDriverLocation(ctx context.Context, driverID string, lat, lng float64, at time.Time) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE driver_profiles SET current_lat = $1, current_lng = $2, last_gps_at = $3 WHERE id = $4`,
		lat, lng, at, driverID)
	if err != nil {
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if n == 0 {
		return errs.ErrDriverNotFound
	}
	return nil
}

func (p *PostgresStore) ActivePricingRule(ctx context.Context) (*models.PricingRule, error) {
	var r models.PricingRule
	err := p.db.QueryRowContext(ctx, `SELECT id, base_fare_cents, per_mi_cents, per_min_cents, surge_multiplier, active
		FROM pricing_rules WHERE active = TRUE LIMIT 1`).
		Scan(&r.ID, &r.BaseFareCents, &r.PerMiCents, &r.PerMinCents, &r.SurgeMultiplier, &r.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNoActivePricingRule
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &r, nil
}

func (p *PostgresStore) AppendEvent(ctx context.Context, ev *models.RideEvent) error {
	return insertEvent(ctx, p.db, ev)
}

func (p *PostgresStore) RideEvents(ctx context.Context, rideID string) ([]models.RideEvent, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, ride_id, type, meta, created_at
		FROM ride_events WHERE ride_id = $1 ORDER BY created_at, id`, rideID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []models.RideEvent
	for rows.Next() {
		var ev models.RideEvent
		if err := rows.Scan(&ev.ID, &ev.RideID, &ev.Type, &ev.Meta, &ev.CreatedAt); err != nil {
			return nil, storageErr(err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEvent(ctx context.Context, db execer, ev *models.RideEvent) error {
	if !ev.Type.Known() {
		return fmt.Errorf("%w: unknown event type %q", errs.ErrValidation, ev.Type)
	}
	_, err := db.ExecContext(ctx, `INSERT INTO ride_events (id, ride_id, type, meta, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		ev.ID, ev.RideID, ev.Type, []byte(ev.Meta), ev.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign key: ride absent
			return errs.ErrRideNotFound
		}
		return storageErr(err)
	}
	return nil
}

// storageErr tags infrastructure failures as retryable for callers; the core
// never retries internally.
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
}

var _ Store = (*PostgresStore)(nil)
