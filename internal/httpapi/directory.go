package httpapi

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"classattend/internal/auth"
	"classattend/internal/directory"
)

// ---------- Classrooms ----------

// ListClassrooms returns the closed classroom set sorted by name.
func (h *Handler) ListClassrooms(c *gin.Context) {
	out, err := h.Directory.ListClassrooms(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetClassroom returns one classroom by id.
func (h *Handler) GetClassroom(c *gin.Context) {
	cls, err := h.Directory.GetClassroom(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cls)
}

// ClassroomMutationDisabled refuses any classroom write. Classrooms are a
// fixed, seed-only set.
func (h *Handler) ClassroomMutationDisabled(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "classroom mutation is disabled, classrooms are fixed"})
}

// ---------- Subjects ----------

type subjectRequest struct {
	Name        string `json:"name" binding:"required"`
	TeacherID   string `json:"teacherId" binding:"required"`
	ClassroomID string `json:"classroomId" binding:"required"`
}

// CreateSubject creates a subject linked to an existing teacher and classroom.
func (h *Handler) CreateSubject(c *gin.Context) {
	var req subjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, err := h.Directory.CreateSubject(c.Request.Context(), req.Name, req.TeacherID, req.ClassroomID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "subject created", "subject": sub})
}

// ListSubjects returns all subjects.
func (h *Handler) ListSubjects(c *gin.Context) {
	out, err := h.Directory.ListSubjects(c.Request.Context(), "", "")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// SubjectsByTeacher returns the subjects taught by one teacher.
func (h *Handler) SubjectsByTeacher(c *gin.Context) {
	out, err := h.Directory.ListSubjects(c.Request.Context(), c.Param("id"), "")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// SubjectsByClassroom returns the subjects held in one classroom.
func (h *Handler) SubjectsByClassroom(c *gin.Context) {
	out, err := h.Directory.ListSubjects(c.Request.Context(), "", c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type subjectUpdateRequest struct {
	Name        string `json:"name"`
	TeacherID   string `json:"teacherId"`
	ClassroomID string `json:"classroomId"`
}

// UpdateSubject applies changes by id.
func (h *Handler) UpdateSubject(c *gin.Context) {
	var req subjectUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, err := h.Directory.UpdateSubject(c.Request.Context(), directory.Subject{
		ID: c.Param("id"), Name: req.Name, TeacherID: req.TeacherID, ClassroomID: req.ClassroomID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "subject updated", "subject": sub})
}

// DeleteSubject removes a subject by id.
func (h *Handler) DeleteSubject(c *gin.Context) {
	if err := h.Directory.DeleteSubject(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "subject deleted"})
}

// ---------- Teachers ----------

type teacherSignupRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Subject   string `json:"subject"`
	Classroom string `json:"classroom" binding:"required"`
}

// TeacherSignup registers a teacher.
func (h *Handler) TeacherSignup(c *gin.Context) {
	var req teacherSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.Directory.SignupTeacher(c.Request.Context(), directory.TeacherSignup{
		Name: req.Name, Email: req.Email, Password: req.Password,
		Subject: req.Subject, Classroom: req.Classroom,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "teacher registered successfully", "teacher": t})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TeacherLogin authenticates a teacher and returns a bearer token.
func (h *Handler) TeacherLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, token, err := h.Directory.LoginTeacher(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": token, "teacher": t})
}

// TeacherProfile returns the authenticated teacher.
func (h *Handler) TeacherProfile(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	t, err := h.Directory.TeacherProfile(c.Request.Context(), claims.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// ---------- Students ----------

type studentSignupRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	RollNo       int    `json:"rollno" binding:"required"`
	ClassroomID  string `json:"classroomId" binding:"required"`
	ProfileImage string `json:"profileImage"`
}

// StudentSignup registers a student.
func (h *Handler) StudentSignup(c *gin.Context) {
	var req studentSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.Directory.SignupStudent(c.Request.Context(), directory.StudentSignup{
		Name: req.Name, Email: req.Email, Password: req.Password,
		RollNo: req.RollNo, ClassroomID: req.ClassroomID, ProfileImage: req.ProfileImage,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "student registered successfully", "student": st})
}

// StudentLogin authenticates a student and returns a bearer token.
func (h *Handler) StudentLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, token, err := h.Directory.LoginStudent(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": token, "student": st})
}

// StudentProfile returns the authenticated student.
func (h *Handler) StudentProfile(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	st, err := h.Directory.StudentProfile(c.Request.Context(), claims.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// StudentEnrollFace forwards one enrollment image to the recognizer. The
// identity fields come from the authenticated student's stored profile, so a
// student can only enroll faces under their own name.
func (h *Handler) StudentEnrollFace(c *gin.Context) {
	if h.Face == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "face service not configured"})
		return
	}
	claims, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	st, err := h.Directory.StudentProfile(c.Request.Context(), claims.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	cls, err := h.Directory.GetClassroom(c.Request.Context(), st.ClassroomID)
	if err != nil {
		writeError(c, err)
		return
	}

	// The recognizer keeps five enrollment slots per student.
	idx := 0
	if v := c.PostForm("imageIndex"); v != "" {
		idx, err = strconv.Atoi(v)
		if err != nil || idx < 0 || idx > 4 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "imageIndex must be between 0 and 4"})
			return
		}
	}
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	defer file.Close()

	res, err := h.Face.Enroll(c.Request.Context(), st.Name, strconv.Itoa(st.RollNo), cls.Name, idx, file, header.Filename)
	if err != nil {
		log.Printf("face enrollment failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "face service unavailable"})
		return
	}
	if !res.Success {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": res.Message})
}
