package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// RecognizedStudent is one identity the recognizer reports in a group image.
type RecognizedStudent struct {
	Name   string `json:"name"`
	RollNo string `json:"roll_no"`
	Class  string `json:"class"`
}

// Token returns the presence token stored in attendance rosters.
func (s RecognizedStudent) Token() string {
	return s.Name + "-" + s.RollNo
}

// EnrollResult is the recognizer's response to a face enrollment.
type EnrollResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RecognizeResult holds the roster recognized in a group image.
type RecognizeResult struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message"`
	Students []RecognizedStudent `json:"recognized_students"`
}

// Client calls the face recognition microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. skip short-circuits every call with canned results
// for development without a running recognizer.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // face processing can take time
		},
	}
}

// Enroll registers one of a student's face images. imageIndex is the slot
// (0-4) of the image in the student's enrollment set.
func (c *Client) Enroll(ctx context.Context, name, rollNo, class string, imageIndex int, image io.Reader, filename string) (*EnrollResult, error) {
	if c.Skip {
		return &EnrollResult{Success: true, Message: "face enrolled (mock)"}, nil
	}

	fields := map[string]string{
		"name":       name,
		"roll_no":    rollNo,
		"class":      class,
		"imageIndex": strconv.Itoa(imageIndex),
	}
	body, contentType, err := imageForm(fields, image, filename)
	if err != nil {
		return nil, err
	}

	var out EnrollResult
	if err := c.post(ctx, "/api/upload-face", body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recognize submits a group image and returns the recognized roster.
func (c *Client) Recognize(ctx context.Context, image io.Reader, filename string) (*RecognizeResult, error) {
	if c.Skip {
		return &RecognizeResult{
			Success:  true,
			Students: []RecognizedStudent{{Name: "Mock Student", RollNo: "0", Class: "D15A"}},
		}, nil
	}

	body, contentType, err := imageForm(nil, image, filename)
	if err != nil {
		return nil, err
	}

	var out RecognizeResult
	if err := c.post(ctx, "/api/recognize-group", body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecognizeURL downloads the evidence image and submits it for recognition.
// Used by the worker, which only holds the stored image URL.
func (c *Client) RecognizeURL(ctx context.Context, imageURL string) (*RecognizeResult, error) {
	if c.Skip {
		return c.Recognize(ctx, nil, "")
	}
	if imageURL == "" {
		return nil, fmt.Errorf("image url required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch image failed: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image failed: %w", err)
	}
	return c.Recognize(ctx, bytes.NewReader(data), "evidence.jpg")
}

// Health checks if the face service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body *bytes.Buffer, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("face service error %s: %s", resp.Status, string(respBody))
	}
	// 4xx responses still carry a {success:false, message} body.
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// imageForm builds a multipart body with an "image" file part plus any extra
// form fields.
func imageForm(fields map[string]string, image io.Reader, filename string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, "", fmt.Errorf("create form file failed: %w", err)
	}
	if image != nil {
		if _, err := io.Copy(part, image); err != nil {
			return nil, "", fmt.Errorf("write image failed: %w", err)
		}
	}
	w.Close()
	return &buf, w.FormDataContentType(), nil
}
