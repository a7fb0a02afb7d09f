package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/carpool/internal/models"
)

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

func (p *PostgresStore) SaveOffer(ctx context.Context, o *models.RouteOffer) error {
	geom, err := json.Marshal(o.Geometry)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO offers(id, driver_id, origin_lat, origin_lon, dest_lat, dest_lon,
			departure, max_extra_km, max_extra_min, baseline_meters, baseline_seconds,
			geometry, status, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		o.ID, o.DriverID, o.Origin.Lat, o.Origin.Lon, o.Destination.Lat, o.Destination.Lon,
		o.Departure, o.MaxExtraKm, o.MaxExtraMin, o.BaselineMeters, o.BaselineSeconds,
		geom, o.Status, o.CreatedAt)
	return err
}

func (p *PostgresStore) GetOffer(ctx context.Context, id string) (*models.RouteOffer, error) {
	o := &models.RouteOffer{}
	var geom []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT id, driver_id, origin_lat, origin_lon, dest_lat, dest_lon,
			departure, max_extra_km, max_extra_min, baseline_meters, baseline_seconds,
			geometry, status, created_at
		FROM offers WHERE id=$1`, id).
		Scan(&o.ID, &o.DriverID, &o.Origin.Lat, &o.Origin.Lon,
			&o.Destination.Lat, &o.Destination.Lon, &o.Departure,
			&o.MaxExtraKm, &o.MaxExtraMin, &o.BaselineMeters, &o.BaselineSeconds,
			&geom, &o.Status, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: offer %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if len(geom) > 0 {
		if err := json.Unmarshal(geom, &o.Geometry); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (p *PostgresStore) ListActiveOffers(ctx context.Context) ([]models.RouteOffer, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, driver_id, origin_lat, origin_lon, dest_lat, dest_lon,
			departure, max_extra_km, max_extra_min, baseline_meters, baseline_seconds,
			geometry, status, created_at
		FROM offers WHERE status = $1`, models.OfferActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RouteOffer
	for rows.Next() {
		var o models.RouteOffer
		var geom []byte
		if err := rows.Scan(&o.ID, &o.DriverID, &o.Origin.Lat, &o.Origin.Lon,
			&o.Destination.Lat, &o.Destination.Lon, &o.Departure,
			&o.MaxExtraKm, &o.MaxExtraMin, &o.BaselineMeters, &o.BaselineSeconds,
			&geom, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		if len(geom) > 0 {
			if err := json.Unmarshal(geom, &o.Geometry); err != nil {
				return nil, err
			}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (p *PostgresStore) UpdateOfferStatus(ctx context.Context, id, status string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE offers SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: offer %s", models.ErrNotFound, id)
	}
	return nil
}

// SaveMatch inserts a new requested match or, when the same pair is still
// requested, returns the existing row. The partial unique index on
// (offer_id, request_id) WHERE status='requested' enforces this.
func (p *PostgresStore) SaveMatch(ctx context.Context, m *models.Match) (*models.Match, error) {
	id := m.ID
	if id == "" {
		id = newID()
	}
	now := time.Now()
	out := &models.Match{}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO matches(id, offer_id, request_id, status, extra_km, extra_min, score, created_at, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$8)
		ON CONFLICT (offer_id, request_id) WHERE status = 'requested'
		DO UPDATE SET updated_at = matches.updated_at
		RETURNING id, offer_id, request_id, status, extra_km, extra_min, score, created_at, updated_at`,
		id, m.OfferID, m.RequestID, models.MatchRequested, m.ExtraKm, m.ExtraMin, m.Score, now).
		Scan(&out.ID, &out.OfferID, &out.RequestID, &out.Status,
			&out.ExtraKm, &out.ExtraMin, &out.Score, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PostgresStore) UpdateMatchStatus(ctx context.Context, id, status string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE matches SET status=$1, updated_at=$2 WHERE id=$3`,
		status, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: match %s", models.ErrNotFound, id)
	}
	return nil
}

func (p *PostgresStore) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	out := &models.Match{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, offer_id, request_id, status, extra_km, extra_min, score, created_at, updated_at
		FROM matches WHERE id=$1`, id).
		Scan(&out.ID, &out.OfferID, &out.RequestID, &out.Status,
			&out.ExtraKm, &out.ExtraMin, &out.Score, &out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: match %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
