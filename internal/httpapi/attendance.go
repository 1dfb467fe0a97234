package httpapi

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classattend/internal/apperr"
	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/cloudinary"
	"classattend/internal/metrics"
	"classattend/internal/queue"
)

type markRequest struct {
	Teacher         string   `json:"teacher" binding:"required"`
	Classroom       string   `json:"classroom" binding:"required"`
	Subject         string   `json:"subject" binding:"required"`
	Date            string   `json:"date"`
	PresentStudents []string `json:"presentStudents"`
	ImageURL        string   `json:"imageUrl"`
}

// MarkAttendance records a submission with a client-supplied roster.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.Submissions.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		metrics.Submissions.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD or RFC3339"})
		return
	}

	rec, err := h.Attendance.Submit(c.Request.Context(), attendance.Submission{
		Teacher:         req.Teacher,
		Classroom:       req.Classroom,
		Subject:         req.Subject,
		Date:            date,
		PresentStudents: req.PresentStudents,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.Validation {
			metrics.Submissions.WithLabelValues("invalid").Inc()
		} else {
			metrics.Submissions.WithLabelValues("error").Inc()
		}
		writeError(c, err)
		return
	}
	metrics.Submissions.WithLabelValues("ok").Inc()
	c.JSON(http.StatusCreated, gin.H{"message": "attendance marked successfully", "attendance": rec})
}

// RecognizeAttendance starts the server-side recognition pipeline: the
// evidence image is stored, a pending record is created, and the worker fills
// in the roster. The client never supplies recognized identities.
func (h *Handler) RecognizeAttendance(c *gin.Context) {
	if h.Cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}

	classroom := c.PostForm("classroom")
	subject := c.PostForm("subject")
	teacher := c.PostForm("teacher")
	if classroom == "" || subject == "" || teacher == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "teacher, classroom and subject are required"})
		return
	}
	date, err := parseDate(c.PostForm("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD or RFC3339"})
		return
	}

	var uploaded *cloudinary.UploadResult
	if file, header, ferr := c.Request.FormFile("photo"); ferr == nil {
		defer file.Close()
		data, rerr := io.ReadAll(file)
		if rerr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read photo failed"})
			return
		}
		uploaded, err = h.Cloud.UploadBytes(data, header.Filename)
	} else if b64 := c.PostForm("image"); b64 != "" {
		// Browser clients capture from a canvas and send a base64 data URL
		// instead of a file part.
		uploaded, err = h.Cloud.UploadBase64(b64)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file or base64 image is required"})
		return
	}
	if err != nil {
		log.Printf("cloudinary upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}

	rec, err := h.Attendance.BeginRecognition(c.Request.Context(), attendance.Submission{
		Teacher:   teacher,
		Classroom: classroom,
		Subject:   subject,
		Date:      date,
		ImageURL:  uploaded.SecureURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	job, _ := json.Marshal(queue.RecognizeJob{RecordID: rec.ID, ImageURL: rec.ImageURL})
	if err := h.Queue.Publish(c.Request.Context(), queue.Message{Type: queue.TypeRecognize, Body: job}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "recognition started", "attendance": rec})
}

// AttendanceByLecture resolves one lecture's record by classroom, subject and
// calendar day.
func (h *Handler) AttendanceByLecture(c *gin.Context) {
	classroom := c.Query("classroom")
	subject := c.Query("subject")
	dateStr := c.Query("date")
	if classroom == "" || subject == "" || dateStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "classroom, subject and date are required"})
		return
	}
	date, err := parseDate(dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD or RFC3339"})
		return
	}

	rec, err := h.Attendance.FindByLecture(c.Request.Context(), classroom, subject, date)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			metrics.LectureLookups.WithLabelValues("miss").Inc()
		} else {
			metrics.LectureLookups.WithLabelValues("error").Inc()
		}
		writeError(c, err)
		return
	}
	metrics.LectureLookups.WithLabelValues("hit").Inc()
	c.JSON(http.StatusOK, rec)
}

// AttendanceByStudent returns the authenticated student's history. The
// presence token is derived from the caller's stored identity, never from
// request input.
func (h *Handler) AttendanceByStudent(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	student, err := h.Directory.StudentProfile(c.Request.Context(), claims.Subject)
	if err != nil {
		writeError(c, err)
		return
	}

	records, total, err := h.Attendance.HistoryFor(c.Request.Context(), student.PresenceToken())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "records": records})
}

// parseDate accepts an empty string (zero time, later defaulted), RFC3339, or
// a bare YYYY-MM-DD calendar day.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
