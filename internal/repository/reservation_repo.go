package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"reservationsystem/internal/db"
	"reservationsystem/internal/entities"
)

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

// ReservationRepository stores reservations in a SQL database. Queries are written
// with ? placeholders and rebound for Postgres.
type ReservationRepository struct {
	DB      *sql.DB
	dialect dialect
}

// NewReservationRepository returns a repository over a Postgres connection (lib/pq).
func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{DB: db, dialect: dialectPostgres}
}

// NewSQLiteReservationRepository returns a repository over a SQLite connection (modernc.org/sqlite).
func NewSQLiteReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{DB: db, dialect: dialectSQLite}
}

func (r *ReservationRepository) rebind(query string) string {
	if r.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

const selectReservation = `SELECT id, user_id, room_id, start_date, end_date, status FROM reservations`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (db.Reservation, error) {
	var (
		res    db.Reservation
		status string
	)
	if err := row.Scan(&res.ID, &res.UserID, &res.RoomID, &res.StartDate, &res.EndDate, &status); err != nil {
		return db.Reservation{}, err
	}
	res.Status = entities.ReservationStatus(status)
	if !res.Status.Valid() {
		return db.Reservation{}, fmt.Errorf("reservation %d has unknown status %q", res.ID, status)
	}
	return res, nil
}

func (r *ReservationRepository) Get(ctx context.Context, id int64) (db.Reservation, error) {
	row := r.DB.QueryRowContext(ctx, r.rebind(selectReservation+` WHERE id = ?`), id)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Reservation{}, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
		}
		return db.Reservation{}, fmt.Errorf("error querying reservation %d: %w", id, err)
	}
	return res, nil
}

func (r *ReservationRepository) List(ctx context.Context) ([]db.Reservation, error) {
	rows, err := r.DB.QueryContext(ctx, selectReservation+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error querying reservations: %w", err)
	}
	defer rows.Close()

	reservations := []db.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating reservation rows: %w", err)
	}
	return reservations, nil
}

func (r *ReservationRepository) Save(ctx context.Context, res db.Reservation) (db.Reservation, error) {
	if res.ID == 0 {
		query := `
		INSERT INTO reservations (user_id, room_id, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`
		err := r.DB.QueryRowContext(ctx, r.rebind(query),
			res.UserID,
			res.RoomID,
			res.StartDate,
			res.EndDate,
			string(res.Status),
		).Scan(&res.ID)
		if err != nil {
			return db.Reservation{}, fmt.Errorf("error inserting reservation: %w", err)
		}
		return res, nil
	}

	query := `
		UPDATE reservations
		SET user_id = ?, room_id = ?, start_date = ?, end_date = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	result, err := r.DB.ExecContext(ctx, r.rebind(query),
		res.UserID,
		res.RoomID,
		res.StartDate,
		res.EndDate,
		string(res.Status),
		res.ID,
	)
	if err != nil {
		return db.Reservation{}, fmt.Errorf("error updating reservation %d: %w", res.ID, err)
	}
	if err := requireAffected(result, res.ID); err != nil {
		return db.Reservation{}, err
	}
	return res, nil
}

func (r *ReservationRepository) SetStatus(ctx context.Context, id int64, status entities.ReservationStatus) error {
	if !status.Valid() {
		return fmt.Errorf("error setting status of reservation %d: invalid status %q", id, status)
	}
	query := `UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := r.DB.ExecContext(ctx, r.rebind(query), string(status), id)
	if err != nil {
		return fmt.Errorf("error setting status of reservation %d: %w", id, err)
	}
	return requireAffected(result, id)
}

func (r *ReservationRepository) CompareAndSetStatus(ctx context.Context, id int64, from, to entities.ReservationStatus) (bool, error) {
	if !to.Valid() {
		return false, fmt.Errorf("error setting status of reservation %d: invalid status %q", id, to)
	}
	query := `UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`
	result, err := r.DB.ExecContext(ctx, r.rebind(query), string(to), id, string(from))
	if err != nil {
		return false, fmt.Errorf("error setting status of reservation %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected for reservation %d: %w", id, err)
	}
	return n > 0, nil
}

func (r *ReservationRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, r.rebind(`SELECT EXISTS (SELECT 1 FROM reservations WHERE id = ?)`), id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking reservation %d: %w", id, err)
	}
	return exists, nil
}

func (r *ReservationRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func (r *ReservationRepository) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

func requireAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected for reservation %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	return nil
}
