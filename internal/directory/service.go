package directory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"classattend/internal/apperr"
	"classattend/internal/auth"
	"classattend/internal/classroom"
)

// Store is the persistence surface the service needs.
type Store interface {
	CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
	GetTeacherByEmail(ctx context.Context, email string) (*Teacher, error)
	GetTeacher(ctx context.Context, id string) (*Teacher, error)

	CreateStudent(ctx context.Context, s Student) (Student, error)
	GetStudentByEmail(ctx context.Context, email string) (*Student, error)
	GetStudent(ctx context.Context, id string) (*Student, error)

	ListClassrooms(ctx context.Context) ([]Classroom, error)
	GetClassroom(ctx context.Context, id string) (*Classroom, error)

	CreateSubject(ctx context.Context, sub Subject) (Subject, error)
	GetSubject(ctx context.Context, id string) (*Subject, error)
	ListSubjects(ctx context.Context, teacherID, classroomID string) ([]Subject, error)
	UpdateSubject(ctx context.Context, sub Subject) (bool, error)
	DeleteSubject(ctx context.Context, id string) (bool, error)
}

// Service implements signup, login, profile and directory reads plus subject
// CRUD. Classroom mutation is not offered at all: the set is closed.
type Service struct {
	store       Store
	issuer      auth.Issuer
	emailDomain string
	timeout     time.Duration
}

// NewService creates a directory service. emailDomain restricts student
// signup emails ("ves.ac.in" accepts only addresses ending in @ves.ac.in).
func NewService(store Store, issuer auth.Issuer, emailDomain string, storeTimeout time.Duration) *Service {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Service{store: store, issuer: issuer, emailDomain: emailDomain, timeout: storeTimeout}
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// TeacherSignup holds signup input for a teacher.
type TeacherSignup struct {
	Name      string
	Email     string
	Password  string
	Subject   string
	Classroom string
}

// SignupTeacher registers a teacher with a hashed password.
func (s *Service) SignupTeacher(ctx context.Context, in TeacherSignup) (Teacher, error) {
	if !classroom.IsAllowed(in.Classroom) {
		return Teacher{}, apperr.New(apperr.Validation,
			fmt.Sprintf("invalid classroom %q, allowed: %v", in.Classroom, classroom.Names()))
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	existing, err := s.store.GetTeacherByEmail(ctx, in.Email)
	if err != nil {
		log.Printf("teacher lookup failed: %v", err)
		return Teacher{}, apperr.Wrap(apperr.Persistence, "signup failed", err)
	}
	if existing != nil {
		return Teacher{}, apperr.New(apperr.Validation, "teacher already exists")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Teacher{}, apperr.Wrap(apperr.Persistence, "signup failed", err)
	}
	t, err := s.store.CreateTeacher(ctx, Teacher{
		Name: in.Name, Email: in.Email, PasswordHash: hash,
		Subject: in.Subject, Classroom: in.Classroom,
	})
	if err != nil {
		log.Printf("teacher insert failed: %v", err)
		return Teacher{}, apperr.Wrap(apperr.Persistence, "signup failed", err)
	}
	return t, nil
}

// LoginTeacher authenticates a teacher and issues a bearer token.
func (s *Service) LoginTeacher(ctx context.Context, email, password string) (Teacher, string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	t, err := s.store.GetTeacherByEmail(ctx, email)
	if err != nil {
		log.Printf("teacher lookup failed: %v", err)
		return Teacher{}, "", apperr.Wrap(apperr.Persistence, "login failed", err)
	}
	if t == nil {
		return Teacher{}, "", apperr.New(apperr.NotFound, "teacher not found")
	}
	if !auth.CheckPassword(t.PasswordHash, password) {
		return Teacher{}, "", apperr.New(apperr.Auth, "invalid credentials")
	}
	token, _, err := s.issuer.Issue(t.ID, auth.RoleTeacher)
	if err != nil {
		return Teacher{}, "", apperr.Wrap(apperr.Persistence, "login failed", err)
	}
	return *t, token, nil
}

// TeacherProfile returns the teacher for an authenticated id.
func (s *Service) TeacherProfile(ctx context.Context, id string) (Teacher, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	t, err := s.store.GetTeacher(ctx, id)
	if err != nil {
		return Teacher{}, apperr.Wrap(apperr.Persistence, "failed to fetch profile", err)
	}
	if t == nil {
		return Teacher{}, apperr.New(apperr.NotFound, "teacher not found")
	}
	return *t, nil
}

// StudentSignup holds signup input for a student.
type StudentSignup struct {
	Name         string
	Email        string
	Password     string
	RollNo       int
	ClassroomID  string
	ProfileImage string
}

// SignupStudent registers a student. The email must belong to the configured
// institutional domain.
func (s *Service) SignupStudent(ctx context.Context, in StudentSignup) (Student, error) {
	if s.emailDomain != "" && !strings.HasSuffix(in.Email, "@"+s.emailDomain) {
		return Student{}, apperr.New(apperr.Validation,
			fmt.Sprintf("email must end with @%s", s.emailDomain))
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	existing, err := s.store.GetStudentByEmail(ctx, in.Email)
	if err != nil {
		log.Printf("student lookup failed: %v", err)
		return Student{}, apperr.Wrap(apperr.Persistence, "signup failed", err)
	}
	if existing != nil {
		return Student{}, apperr.New(apperr.Validation, "student already exists")
	}
	cls, err := s.store.GetClassroom(ctx, in.ClassroomID)
	if err != nil {
		log.Printf("classroom lookup failed: %v", err)
		return Student{}, apperr.Wrap(apperr.Persistence, "signup failed", err)
	}
	if cls == nil {
		return Student{}, apperr.New(apperr.Validation, "classroom not found")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Student{}, apperr.Wrap(apperr.Persistence, "signup failed", err)
	}
	st, err := s.store.CreateStudent(ctx, Student{
		Name: in.Name, Email: in.Email, PasswordHash: hash,
		RollNo: in.RollNo, ClassroomID: in.ClassroomID, ProfileImage: in.ProfileImage,
	})
	if err != nil {
		log.Printf("student insert failed: %v", err)
		return Student{}, apperr.Wrap(apperr.Persistence, "signup failed", err)
	}
	return st, nil
}

// LoginStudent authenticates a student and issues a bearer token.
func (s *Service) LoginStudent(ctx context.Context, email, password string) (Student, string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	st, err := s.store.GetStudentByEmail(ctx, email)
	if err != nil {
		log.Printf("student lookup failed: %v", err)
		return Student{}, "", apperr.Wrap(apperr.Persistence, "login failed", err)
	}
	if st == nil {
		return Student{}, "", apperr.New(apperr.NotFound, "student not found")
	}
	if !auth.CheckPassword(st.PasswordHash, password) {
		return Student{}, "", apperr.New(apperr.Auth, "invalid credentials")
	}
	token, _, err := s.issuer.Issue(st.ID, auth.RoleStudent)
	if err != nil {
		return Student{}, "", apperr.Wrap(apperr.Persistence, "login failed", err)
	}
	return *st, token, nil
}

// StudentProfile returns the student for an authenticated id.
func (s *Service) StudentProfile(ctx context.Context, id string) (Student, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	st, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return Student{}, apperr.Wrap(apperr.Persistence, "failed to fetch profile", err)
	}
	if st == nil {
		return Student{}, apperr.New(apperr.NotFound, "student not found")
	}
	return *st, nil
}

// ListClassrooms returns the closed classroom set sorted by name.
func (s *Service) ListClassrooms(ctx context.Context) ([]Classroom, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	out, err := s.store.ListClassrooms(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "failed to fetch classrooms", err)
	}
	if out == nil {
		out = []Classroom{}
	}
	return out, nil
}

// GetClassroom returns one classroom by id.
func (s *Service) GetClassroom(ctx context.Context, id string) (Classroom, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	c, err := s.store.GetClassroom(ctx, id)
	if err != nil {
		return Classroom{}, apperr.Wrap(apperr.Persistence, "error retrieving classroom", err)
	}
	if c == nil {
		return Classroom{}, apperr.New(apperr.NotFound, "classroom not found")
	}
	return *c, nil
}

// CreateSubject links a subject to an existing teacher and classroom.
func (s *Service) CreateSubject(ctx context.Context, name, teacherID, classroomID string) (Subject, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	t, err := s.store.GetTeacher(ctx, teacherID)
	if err != nil {
		return Subject{}, apperr.Wrap(apperr.Persistence, "error creating subject", err)
	}
	c, err := s.store.GetClassroom(ctx, classroomID)
	if err != nil {
		return Subject{}, apperr.Wrap(apperr.Persistence, "error creating subject", err)
	}
	if t == nil || c == nil {
		return Subject{}, apperr.New(apperr.NotFound, "teacher or classroom not found")
	}

	sub, err := s.store.CreateSubject(ctx, Subject{Name: name, TeacherID: teacherID, ClassroomID: classroomID})
	if err != nil {
		log.Printf("subject insert failed: %v", err)
		return Subject{}, apperr.Wrap(apperr.Persistence, "error creating subject", err)
	}
	return sub, nil
}

// ListSubjects returns subjects filtered by teacher or classroom; empty
// filters list everything.
func (s *Service) ListSubjects(ctx context.Context, teacherID, classroomID string) ([]Subject, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	out, err := s.store.ListSubjects(ctx, teacherID, classroomID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "failed to fetch subjects", err)
	}
	if out == nil {
		out = []Subject{}
	}
	return out, nil
}

// UpdateSubject applies changes unconditionally by id.
func (s *Service) UpdateSubject(ctx context.Context, sub Subject) (Subject, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	existing, err := s.store.GetSubject(ctx, sub.ID)
	if err != nil {
		return Subject{}, apperr.Wrap(apperr.Persistence, "error updating subject", err)
	}
	if existing == nil {
		return Subject{}, apperr.New(apperr.NotFound, "subject not found")
	}
	if sub.Name == "" {
		sub.Name = existing.Name
	}
	if sub.TeacherID == "" {
		sub.TeacherID = existing.TeacherID
	}
	if sub.ClassroomID == "" {
		sub.ClassroomID = existing.ClassroomID
	}
	ok, err := s.store.UpdateSubject(ctx, sub)
	if err != nil {
		return Subject{}, apperr.Wrap(apperr.Persistence, "error updating subject", err)
	}
	if !ok {
		return Subject{}, apperr.New(apperr.NotFound, "subject not found")
	}
	out, err := s.store.GetSubject(ctx, sub.ID)
	if err != nil || out == nil {
		return sub, nil
	}
	return *out, nil
}

// DeleteSubject removes a subject by id.
func (s *Service) DeleteSubject(ctx context.Context, id string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	ok, err := s.store.DeleteSubject(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.Persistence, "error deleting subject", err)
	}
	if !ok {
		return apperr.New(apperr.NotFound, "subject not found")
	}
	return nil
}
