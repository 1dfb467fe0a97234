package attendance

import "time"

// Record status values. Direct submissions are final immediately; records
// created through the server-side recognition pipeline start pending and are
// finalized by the worker.
const (
	StatusFinal     = "final"
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Record is a durable attendance entry for one lecture submission.
// Teacher and Subject are display labels, not foreign keys; PresentStudents
// holds opaque "<name>-<rollNo>" presence tokens.
type Record struct {
	ID              string    `json:"id"`
	Teacher         string    `json:"teacher"`
	Classroom       string    `json:"classroom"`
	Subject         string    `json:"subject"`
	TakenAt         time.Time `json:"date"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	PresentStudents []string  `json:"presentStudents"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Submission is the input for creating a record.
type Submission struct {
	Teacher         string
	Classroom       string
	Subject         string
	Date            time.Time
	PresentStudents []string
	ImageURL        string
}

// DayRange returns the inclusive [00:00:00, 23:59:59] UTC bounds of the
// calendar day containing t. Lecture resolution matches any stored timestamp
// within these bounds regardless of time-of-day precision.
func DayRange(t time.Time) (from, to time.Time) {
	u := t.UTC()
	from = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	to = from.Add(24*time.Hour - time.Second)
	return from, to
}
