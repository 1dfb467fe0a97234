package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classattend/internal/apperr"
	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/cloudinary"
	"classattend/internal/directory"
	"classattend/internal/faceclient"
	"classattend/internal/queue"
)

// Handler exposes the REST surface over the attendance and directory services.
type Handler struct {
	Attendance *attendance.Service
	Directory  *directory.Service
	Cloud      *cloudinary.Client // nil when Cloudinary is not configured
	Face       *faceclient.Client // nil when the recognizer is not configured
	Queue      queue.Queue
}

// New creates a handler.
func New(att *attendance.Service, dir *directory.Service, cloud *cloudinary.Client, face *faceclient.Client, q queue.Queue) *Handler {
	return &Handler{Attendance: att, Directory: dir, Cloud: cloud, Face: face, Queue: q}
}

// Register mounts all routes under /v1.
func (h *Handler) Register(r *gin.Engine, signingKey, issuer string) {
	v1 := r.Group("/v1")

	requireAuth := auth.RequireAuth(signingKey, issuer)
	teacherOnly := auth.RequireRole(auth.RoleTeacher)
	studentOnly := auth.RequireRole(auth.RoleStudent)

	att := v1.Group("/attendance")
	att.GET("/by-lecture", h.AttendanceByLecture)
	att.GET("/by-student", requireAuth, studentOnly, h.AttendanceByStudent)
	att.POST("/mark", requireAuth, teacherOnly, h.MarkAttendance)
	att.POST("/recognize", requireAuth, teacherOnly, h.RecognizeAttendance)

	cls := v1.Group("/classrooms")
	cls.GET("", h.ListClassrooms)
	cls.GET("/:id", h.GetClassroom)
	// The classroom set is closed; every mutation is refused.
	cls.POST("", h.ClassroomMutationDisabled)
	cls.PUT("/:id", h.ClassroomMutationDisabled)
	cls.DELETE("/:id", h.ClassroomMutationDisabled)

	subj := v1.Group("/subjects")
	subj.GET("", h.ListSubjects)
	subj.GET("/by-teacher/:id", h.SubjectsByTeacher)
	subj.GET("/by-classroom/:id", h.SubjectsByClassroom)
	subj.POST("", requireAuth, teacherOnly, h.CreateSubject)
	subj.PUT("/:id", requireAuth, teacherOnly, h.UpdateSubject)
	subj.DELETE("/:id", requireAuth, teacherOnly, h.DeleteSubject)

	teachers := v1.Group("/teachers")
	teachers.POST("/signup", h.TeacherSignup)
	teachers.POST("/login", h.TeacherLogin)
	teachers.GET("/profile", requireAuth, teacherOnly, h.TeacherProfile)

	students := v1.Group("/students")
	students.POST("/signup", h.StudentSignup)
	students.POST("/login", h.StudentLogin)
	students.GET("/profile", requireAuth, studentOnly, h.StudentProfile)
	students.POST("/enroll-face", requireAuth, studentOnly, h.StudentEnrollFace)
}

// writeError maps the error taxonomy onto HTTP statuses. Persistence causes
// stay server-side; callers get the safe message only.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.Auth:
		status = http.StatusUnauthorized
	case apperr.Forbidden:
		status = http.StatusForbidden
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Persistence:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}
