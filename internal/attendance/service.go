package attendance

import (
	"context"
	"fmt"
	"log"
	"time"

	"classattend/internal/apperr"
	"classattend/internal/classroom"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, rec Record) (Record, error)
	FindInRange(ctx context.Context, classroomName, subject string, from, to time.Time) (*Record, error)
	ListByStudent(ctx context.Context, token string) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	UpdateRoster(ctx context.Context, id string, roster []string, status string) error
}

// Service implements attendance submission, lecture resolution and student
// history over a Store. Every store call runs under a bounded timeout.
type Service struct {
	store   Store
	timeout time.Duration
}

// NewService creates a service backed by a store.
func NewService(store Store, storeTimeout time.Duration) *Service {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Service{store: store, timeout: storeTimeout}
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Submit validates and persists one attendance submission. Classroom must be
// in the allowed set; teacher and subject are free-text and unchecked; the
// date defaults to now (UTC) when absent. Identical (classroom, subject, date)
// submissions are deliberately not deduplicated.
func (s *Service) Submit(ctx context.Context, sub Submission) (Record, error) {
	if !classroom.IsAllowed(sub.Classroom) {
		return Record{}, apperr.New(apperr.Validation,
			fmt.Sprintf("invalid classroom %q, allowed: %v", sub.Classroom, classroom.Names()))
	}
	rec := Record{
		Teacher:         sub.Teacher,
		Classroom:       sub.Classroom,
		Subject:         sub.Subject,
		TakenAt:         sub.Date,
		ImageURL:        sub.ImageURL,
		PresentStudents: sub.PresentStudents,
		Status:          StatusFinal,
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	out, err := s.store.Insert(ctx, rec)
	if err != nil {
		log.Printf("attendance insert failed: %v", err)
		return Record{}, apperr.Wrap(apperr.Persistence, "failed to mark attendance", err)
	}
	return out, nil
}

// BeginRecognition persists a pending record for the server-side recognition
// pipeline. The roster is filled in later by the worker.
func (s *Service) BeginRecognition(ctx context.Context, sub Submission) (Record, error) {
	if !classroom.IsAllowed(sub.Classroom) {
		return Record{}, apperr.New(apperr.Validation,
			fmt.Sprintf("invalid classroom %q, allowed: %v", sub.Classroom, classroom.Names()))
	}
	rec := Record{
		Teacher:         sub.Teacher,
		Classroom:       sub.Classroom,
		Subject:         sub.Subject,
		TakenAt:         sub.Date,
		ImageURL:        sub.ImageURL,
		PresentStudents: []string{},
		Status:          StatusPending,
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	out, err := s.store.Insert(ctx, rec)
	if err != nil {
		log.Printf("attendance insert failed: %v", err)
		return Record{}, apperr.Wrap(apperr.Persistence, "failed to start attendance", err)
	}
	return out, nil
}

// FindByLecture resolves the attendance record for a (classroom, subject, day)
// triple, matching any stored timestamp within the UTC calendar day.
func (s *Service) FindByLecture(ctx context.Context, classroomName, subject string, day time.Time) (Record, error) {
	from, to := DayRange(day)
	ctx, cancel := s.bound(ctx)
	defer cancel()
	rec, err := s.store.FindInRange(ctx, classroomName, subject, from, to)
	if err != nil {
		log.Printf("lecture lookup failed: %v", err)
		return Record{}, apperr.Wrap(apperr.Persistence, "failed to retrieve attendance", err)
	}
	if rec == nil {
		return Record{}, apperr.New(apperr.NotFound, "attendance not found")
	}
	return *rec, nil
}

// HistoryFor returns every record whose roster contains the caller's presence
// token, plus the total count. The token must come from the authenticated
// identity, never from request input.
func (s *Service) HistoryFor(ctx context.Context, token string) ([]Record, int, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	records, err := s.store.ListByStudent(ctx, token)
	if err != nil {
		log.Printf("student history lookup failed: %v", err)
		return nil, 0, apperr.Wrap(apperr.Persistence, "failed to get student attendance", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, len(records), nil
}

// Get returns a record by id; used by the recognition worker.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, apperr.Wrap(apperr.Persistence, "failed to load record", err)
	}
	return rec, nil
}

// Finalize writes the recognized roster onto a pending record.
func (s *Service) Finalize(ctx context.Context, id string, roster []string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.store.UpdateRoster(ctx, id, roster, StatusProcessed); err != nil {
		return apperr.Wrap(apperr.Persistence, "failed to finalize record", err)
	}
	return nil
}

// Fail marks a pending record as failed after a recognition error.
func (s *Service) Fail(ctx context.Context, id string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.store.UpdateRoster(ctx, id, nil, StatusFailed); err != nil {
		return apperr.Wrap(apperr.Persistence, "failed to mark record failed", err)
	}
	return nil
}
