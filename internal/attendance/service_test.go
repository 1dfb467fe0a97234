package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"classattend/internal/apperr"
)

// memStore is an in-memory Store with the same range and ordering semantics
// as the Postgres repository.
type memStore struct {
	records []Record
	seq     int
	failAll bool
}

var errStoreDown = errors.New("store down")

func (m *memStore) Insert(_ context.Context, rec Record) (Record, error) {
	if m.failAll {
		return Record{}, errStoreDown
	}
	m.seq++
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("rec-%d", m.seq)
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
	rec.CreatedAt = time.Now().UTC().Add(time.Duration(m.seq) * time.Millisecond)
	rec.UpdatedAt = rec.CreatedAt
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memStore) FindInRange(_ context.Context, classroomName, subject string, from, to time.Time) (*Record, error) {
	if m.failAll {
		return nil, errStoreDown
	}
	var best *Record
	for i := range m.records {
		rec := m.records[i]
		if rec.Classroom != classroomName || rec.Subject != subject {
			continue
		}
		if rec.TakenAt.Before(from) || rec.TakenAt.After(to) {
			continue
		}
		if best == nil ||
			rec.TakenAt.After(best.TakenAt) ||
			(rec.TakenAt.Equal(best.TakenAt) && rec.CreatedAt.After(best.CreatedAt)) {
			best = &m.records[i]
		}
	}
	return best, nil
}

func (m *memStore) ListByStudent(_ context.Context, token string) ([]Record, error) {
	if m.failAll {
		return nil, errStoreDown
	}
	var out []Record
	for _, rec := range m.records {
		for _, s := range rec.PresentStudents {
			if s == token {
				out = append(out, rec)
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, id string) (Record, error) {
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, errors.New("no rows")
}

func (m *memStore) UpdateRoster(_ context.Context, id string, roster []string, status string) error {
	for i := range m.records {
		if m.records[i].ID == id {
			if roster == nil {
				roster = []string{}
			}
			m.records[i].PresentStudents = roster
			m.records[i].Status = status
			return nil
		}
	}
	return errors.New("no rows")
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSubmitRejectsInvalidClassroom(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, time.Second)

	_, err := svc.Submit(context.Background(), Submission{
		Teacher: "T1", Classroom: "Z99", Subject: "Networks", Date: day("2024-03-01"),
	})
	if apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("err = %v, want Validation", err)
	}
	if len(store.records) != 0 {
		t.Errorf("invalid submission persisted %d records", len(store.records))
	}
}

func TestSubmitDefaultsDate(t *testing.T) {
	svc := NewService(&memStore{}, time.Second)

	rec, err := svc.Submit(context.Background(), Submission{
		Teacher: "T1", Classroom: "D15A", Subject: "Networks",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.TakenAt.IsZero() {
		t.Error("record date is zero, want defaulted to submission time")
	}
	if rec.PresentStudents == nil {
		t.Error("roster is nil, want empty slice")
	}
}

func TestSubmitAllowsEmptyRoster(t *testing.T) {
	svc := NewService(&memStore{}, time.Second)

	rec, err := svc.Submit(context.Background(), Submission{
		Teacher: "T1", Classroom: "D5B", Subject: "Maths", Date: day("2024-03-01"),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(rec.PresentStudents) != 0 {
		t.Errorf("roster = %v, want empty", rec.PresentStudents)
	}
}

func TestSubmitSurfacesPersistenceFailure(t *testing.T) {
	svc := NewService(&memStore{failAll: true}, time.Second)

	_, err := svc.Submit(context.Background(), Submission{
		Teacher: "T1", Classroom: "D15A", Subject: "Networks",
	})
	if apperr.KindOf(err) != apperr.Persistence {
		t.Fatalf("err = %v, want Persistence", err)
	}
}

func TestDayRange(t *testing.T) {
	from, to := DayRange(time.Date(2024, 3, 1, 14, 25, 3, 0, time.UTC))
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); !from.Equal(want) {
		t.Errorf("from = %v, want %v", from, want)
	}
	if want := time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC); !to.Equal(want) {
		t.Errorf("to = %v, want %v", to, want)
	}
}

func TestFindByLectureMatchesWithinDay(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, time.Second)

	// Stored with sub-day precision; lookup uses the calendar day.
	sub := Submission{
		Teacher: "T1", Classroom: "D15A", Subject: "Networks",
		Date:            time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC),
		PresentStudents: []string{"Alice-101"},
	}
	want, err := svc.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got, err := svc.FindByLecture(context.Background(), "D15A", "Networks", day("2024-03-01"))
	if err != nil {
		t.Fatalf("FindByLecture: %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("resolved record %s, want %s", got.ID, want.ID)
	}
}

func TestFindByLectureNotFound(t *testing.T) {
	svc := NewService(&memStore{}, time.Second)

	_, err := svc.FindByLecture(context.Background(), "D15A", "Networks", day("2024-03-01"))
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestFindByLectureIgnoresOtherDays(t *testing.T) {
	svc := NewService(&memStore{}, time.Second)

	if _, err := svc.Submit(context.Background(), Submission{
		Teacher: "T1", Classroom: "D15A", Subject: "Networks",
		Date: time.Date(2024, 3, 2, 0, 0, 1, 0, time.UTC),
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err := svc.FindByLecture(context.Background(), "D15A", "Networks", day("2024-03-01"))
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("err = %v, want NotFound for adjacent day", err)
	}
}

func TestDuplicateSubmissionsBothSucceedAndTieBreak(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, time.Second)

	sub := Submission{
		Teacher: "T1", Classroom: "D15A", Subject: "Networks",
		Date:            time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		PresentStudents: []string{"Alice-101"},
	}
	first, err := svc.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	second, err := svc.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("duplicate submissions produced the same record")
	}
	if len(store.records) != 2 {
		t.Fatalf("store holds %d records, want 2", len(store.records))
	}

	// Same taken_at: the later created_at wins.
	got, err := svc.FindByLecture(context.Background(), "D15A", "Networks", day("2024-03-01"))
	if err != nil {
		t.Fatalf("FindByLecture: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("tie-break resolved %s, want most recently created %s", got.ID, second.ID)
	}

	// Both remain retrievable through student history.
	records, total, err := svc.HistoryFor(context.Background(), "Alice-101")
	if err != nil {
		t.Fatalf("HistoryFor: %v", err)
	}
	if total != 2 || len(records) != 2 {
		t.Errorf("history total = %d, len = %d, want 2/2", total, len(records))
	}
}

func TestHistoryForFiltersByToken(t *testing.T) {
	svc := NewService(&memStore{}, time.Second)

	submit := func(subject string, roster ...string) {
		t.Helper()
		if _, err := svc.Submit(context.Background(), Submission{
			Teacher: "T1", Classroom: "D15A", Subject: subject,
			Date: day("2024-03-01"), PresentStudents: roster,
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	submit("Networks", "Alice-101", "Bob-102")
	submit("Maths", "Bob-102")
	submit("Physics")

	records, total, err := svc.HistoryFor(context.Background(), "Alice-101")
	if err != nil {
		t.Fatalf("HistoryFor: %v", err)
	}
	if total != 1 || len(records) != 1 {
		t.Fatalf("total = %d, len = %d, want 1/1", total, len(records))
	}
	if records[0].Subject != "Networks" {
		t.Errorf("history returned %q, want Networks", records[0].Subject)
	}

	records, total, err = svc.HistoryFor(context.Background(), "Carol-103")
	if err != nil {
		t.Fatalf("HistoryFor: %v", err)
	}
	if total != 0 || len(records) != 0 {
		t.Errorf("total = %d, len = %d, want 0/0", total, len(records))
	}
}

func TestRecognitionLifecycle(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, time.Second)

	rec, err := svc.BeginRecognition(context.Background(), Submission{
		Teacher: "T1", Classroom: "D15A", Subject: "Networks",
		ImageURL: "http://img/evidence.jpg",
	})
	if err != nil {
		t.Fatalf("BeginRecognition: %v", err)
	}
	if rec.Status != StatusPending {
		t.Fatalf("status = %q, want pending", rec.Status)
	}

	if err := svc.Finalize(context.Background(), rec.ID, []string{"Alice-101"}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	got, err := svc.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusProcessed {
		t.Errorf("status = %q, want processed", got.Status)
	}
	if len(got.PresentStudents) != 1 || got.PresentStudents[0] != "Alice-101" {
		t.Errorf("roster = %v, want [Alice-101]", got.PresentStudents)
	}
}

func TestBeginRecognitionRejectsInvalidClassroom(t *testing.T) {
	svc := NewService(&memStore{}, time.Second)
	_, err := svc.BeginRecognition(context.Background(), Submission{Classroom: "Z99"})
	if apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("err = %v, want Validation", err)
	}
}
