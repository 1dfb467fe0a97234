package directory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Repository persists directory entities in Postgres. Absent rows are
// reported as (nil, nil); errors are real store failures.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateTeacher inserts a teacher, generating the id.
func (r *Repository) CreateTeacher(ctx context.Context, t Teacher) (Teacher, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO teachers (id, name, email, password_hash, subject, classroom)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at
	`, t.ID, t.Name, t.Email, t.PasswordHash, t.Subject, t.Classroom)
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return Teacher{}, err
	}
	return t, nil
}

// GetTeacherByEmail returns a teacher by unique email, nil when absent.
func (r *Repository) GetTeacherByEmail(ctx context.Context, email string) (*Teacher, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, subject, classroom, created_at, updated_at
		FROM teachers WHERE email = $1
	`, email)
	var t Teacher
	if err := row.Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.Subject, &t.Classroom, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// GetTeacher returns a teacher by id, nil when absent.
func (r *Repository) GetTeacher(ctx context.Context, id string) (*Teacher, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, subject, classroom, created_at, updated_at
		FROM teachers WHERE id = $1
	`, id)
	var t Teacher
	if err := row.Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.Subject, &t.Classroom, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// CreateStudent inserts a student, generating the id.
func (r *Repository) CreateStudent(ctx context.Context, s Student) (Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (id, name, email, password_hash, roll_no, classroom_id, profile_image)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at
	`, s.ID, s.Name, s.Email, s.PasswordHash, s.RollNo, s.ClassroomID, s.ProfileImage)
	if err := row.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return Student{}, err
	}
	return s, nil
}

// GetStudentByEmail returns a student by unique email, nil when absent.
func (r *Repository) GetStudentByEmail(ctx context.Context, email string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, roll_no, classroom_id, profile_image, created_at, updated_at
		FROM students WHERE email = $1
	`, email)
	return scanStudent(row)
}

// GetStudent returns a student by id, nil when absent.
func (r *Repository) GetStudent(ctx context.Context, id string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, roll_no, classroom_id, profile_image, created_at, updated_at
		FROM students WHERE id = $1
	`, id)
	return scanStudent(row)
}

func scanStudent(row *sql.Row) (*Student, error) {
	var s Student
	if err := row.Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.RollNo, &s.ClassroomID, &s.ProfileImage, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListClassrooms returns the seeded classrooms sorted by name.
func (r *Repository) ListClassrooms(ctx context.Context) ([]Classroom, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM classrooms
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Classroom
	for rows.Next() {
		var c Classroom
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetClassroom returns a classroom by id, nil when absent.
func (r *Repository) GetClassroom(ctx context.Context, id string) (*Classroom, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at FROM classrooms WHERE id = $1
	`, id)
	var c Classroom
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// CreateSubject inserts a subject, generating the id.
func (r *Repository) CreateSubject(ctx context.Context, sub Subject) (Subject, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO subjects (id, name, teacher_id, classroom_id)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at
	`, sub.ID, sub.Name, sub.TeacherID, sub.ClassroomID)
	if err := row.Scan(&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return Subject{}, err
	}
	return sub, nil
}

// GetSubject returns a subject by id, nil when absent.
func (r *Repository) GetSubject(ctx context.Context, id string) (*Subject, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, teacher_id, classroom_id, created_at, updated_at
		FROM subjects WHERE id = $1
	`, id)
	var sub Subject
	if err := row.Scan(&sub.ID, &sub.Name, &sub.TeacherID, &sub.ClassroomID, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ListSubjects returns subjects, optionally filtered by teacher or classroom.
// Empty filter values match everything.
func (r *Repository) ListSubjects(ctx context.Context, teacherID, classroomID string) ([]Subject, error) {
	query := `SELECT id, name, teacher_id, classroom_id, created_at, updated_at FROM subjects`
	args := []any{}
	switch {
	case teacherID != "":
		query += ` WHERE teacher_id = $1`
		args = append(args, teacherID)
	case classroomID != "":
		query += ` WHERE classroom_id = $1`
		args = append(args, classroomID)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subject
	for rows.Next() {
		var sub Subject
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.TeacherID, &sub.ClassroomID, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// UpdateSubject applies name/teacher/classroom changes; reports whether a row
// was updated.
func (r *Repository) UpdateSubject(ctx context.Context, sub Subject) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subjects
		SET name = $2, teacher_id = $3, classroom_id = $4, updated_at = NOW()
		WHERE id = $1
	`, sub.ID, sub.Name, sub.TeacherID, sub.ClassroomID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteSubject removes a subject; reports whether a row was deleted.
func (r *Repository) DeleteSubject(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
