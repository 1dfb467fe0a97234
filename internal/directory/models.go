package directory

import (
	"fmt"
	"time"
)

// Teacher is an identity in the directory. Subject is a free-text label of
// what they teach; Classroom is a code from the allowed set.
type Teacher struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Subject      string    `json:"subject"`
	Classroom    string    `json:"classroom"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Student is an enrolled identity. Email is restricted to the institutional
// domain at signup.
type Student struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RollNo       int       `json:"rollno"`
	ClassroomID  string    `json:"classroomId"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PresenceToken is the opaque string identifying this student within an
// attendance record's roster, matching what recognition output produces.
func (s Student) PresenceToken() string {
	return fmt.Sprintf("%s-%d", s.Name, s.RollNo)
}

// Subject is a named course linked to a teacher and classroom.
type Subject struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	TeacherID   string    `json:"teacherId"`
	ClassroomID string    `json:"classroomId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Classroom is one entry of the closed classroom set.
type Classroom struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
