package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/padel-booking/internal/schedule"
)

const uniqueViolation = "23505"

// pgxQuerier is satisfied by *pgxpool.Pool and pgxmock pools.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores bookings in the bookings table.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting mocks for tests.
func NewPostgresRepositoryWithDB(db pgxQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const insertBookingSQL = `
	INSERT INTO bookings (id, name, phone, booking_date, booking_time, format_type, status)
	VALUES ($1, $2, $3, $4::date, $5, $6, $7)
	RETURNING created_at
`

func (r *PostgresRepository) Create(ctx context.Context, req *CreateBookingRequest) (*Booking, error) {
	id := uuid.New()
	var createdAt time.Time
	err := r.db.QueryRow(ctx, insertBookingSQL,
		id,
		req.Name,
		req.Phone,
		req.Date,
		req.Time,
		req.FormatType,
		StatusConfirmed,
	).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("bookings: insert failed: %w", err)
	}

	return &Booking{
		ID:         id.String(),
		Name:       req.Name,
		Phone:      req.Phone,
		Date:       req.Date,
		Time:       req.Time,
		FormatType: req.FormatType,
		Status:     StatusConfirmed,
		CreatedAt:  createdAt.UTC(),
	}, nil
}

const selectBookingColumns = `
	SELECT id::text, name, phone, to_char(booking_date, 'YYYY-MM-DD'), booking_time, format_type, status, created_at
	FROM bookings
`

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	booking, err := scanBooking(r.db.QueryRow(ctx, selectBookingColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: get failed: %w", err)
	}
	return booking, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*Booking, error) {
	rows, err := r.db.Query(ctx, selectBookingColumns+` ORDER BY booking_date, booking_time`)
	if err != nil {
		return nil, fmt.Errorf("bookings: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan failed: %w", err)
		}
		out = append(out, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: list rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("bookings: count failed: %w", err)
	}
	return n, nil
}

// BookedSlots returns the occupied slots on or after from (YYYY-MM-DD). An
// empty from returns every booking.
func (r *PostgresRepository) BookedSlots(ctx context.Context, from string) ([]schedule.SlotKey, error) {
	query := `
		SELECT to_char(booking_date, 'YYYY-MM-DD'), booking_time
		FROM bookings
	`
	var args []any
	if from != "" {
		query += `WHERE booking_date >= $1::date`
		args = append(args, from)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings: booked slots failed: %w", err)
	}
	defer rows.Close()

	var keys []schedule.SlotKey
	for rows.Next() {
		var key schedule.SlotKey
		if err := rows.Scan(&key.Date, &key.Time); err != nil {
			return nil, fmt.Errorf("bookings: scan slot: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: booked slot rows: %w", err)
	}
	return keys, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID,
		&b.Name,
		&b.Phone,
		&b.Date,
		&b.Time,
		&b.FormatType,
		&b.Status,
		&b.CreatedAt,
	); err != nil {
		return nil, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}
