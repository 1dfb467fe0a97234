package attendance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `id, teacher, classroom, subject, taken_at, image_url, present_students, status, created_at, updated_at`

// Insert writes a new record, generating id, timestamp and status defaults.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.TakenAt.IsZero() {
		rec.TakenAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = StatusFinal
	}
	if rec.PresentStudents == nil {
		rec.PresentStudents = []string{}
	}
	roster, err := json.Marshal(rec.PresentStudents)
	if err != nil {
		return Record{}, fmt.Errorf("marshal roster: %w", err)
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, teacher, classroom, subject, taken_at, image_url, present_students, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`, rec.ID, rec.Teacher, rec.Classroom, rec.Subject, rec.TakenAt, rec.ImageURL, roster, rec.Status)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// FindInRange returns the record for (classroom, subject) taken within
// [from, to], or nil when none exists. Duplicates for the same lecture are
// broken deterministically: most recent taken_at, then most recent created_at.
func (r *Repository) FindInRange(ctx context.Context, classroomName, subject string, from, to time.Time) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE classroom = $1 AND subject = $2 AND taken_at BETWEEN $3 AND $4
		ORDER BY taken_at DESC, created_at DESC
		LIMIT 1
	`, classroomName, subject, from, to)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListByStudent returns every record whose roster contains the presence token.
func (r *Repository) ListByStudent(ctx context.Context, token string) ([]Record, error) {
	needle, err := json.Marshal([]string{token})
	if err != nil {
		return nil, fmt.Errorf("marshal token: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE present_students @> $1::jsonb
		ORDER BY taken_at DESC
	`, needle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Get returns a single record by id.
func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records WHERE id = $1
	`, id)
	return scanRecord(row)
}

// UpdateRoster replaces a record's roster and status after recognition.
func (r *Repository) UpdateRoster(ctx context.Context, id string, roster []string, status string) error {
	if roster == nil {
		roster = []string{}
	}
	encoded, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE attendance_records
		SET present_students = $2, status = $3, updated_at = NOW()
		WHERE id = $1
	`, id, encoded, status)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var roster []byte
	if err := row.Scan(&rec.ID, &rec.Teacher, &rec.Classroom, &rec.Subject, &rec.TakenAt,
		&rec.ImageURL, &roster, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(roster, &rec.PresentStudents); err != nil {
		return Record{}, fmt.Errorf("decode roster: %w", err)
	}
	if rec.PresentStudents == nil {
		rec.PresentStudents = []string{}
	}
	return rec, nil
}
