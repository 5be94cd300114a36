package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"mcqmark/internal/answerkey"
	"mcqmark/internal/model"
)

// processPath is the grading service's submission route.
const processPath = "/process-image"

// Client submits normalized answer-sheet images to the external grading
// service and decodes its responses. It never retries: repeated submission
// duplicates grading cost, so retry policy belongs to the caller.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a grading client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// TransportError reports that the service was unreachable or the request
// timed out. This is the only retryable error class.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "grading service unreachable: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError is a non-success response from the grading service.
type ServiceError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("grading service error (status %d): %s", e.StatusCode, e.Message)
}

// ProtocolError reports a success response whose body could not be
// interpreted as a graded result.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string { return "malformed grading response: " + e.Err.Error() }
func (e *ProtocolError) Unwrap() error { return e.Err }

// response mirrors the service's success body. The annotated image arrives as
// base64 bytes plus a separately declared MIME subtype.
type response struct {
	Score     int         `json:"score"`
	Correct   int         `json:"correct"`
	Total     int         `json:"total"`
	Grading   []looseBool `json:"grading"`
	Image     string      `json:"image"`
	ImageType string      `json:"image_type"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// looseBool accepts JSON true/false as well as 1/0; the grading service emits
// either depending on version.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*b = true
	case "false", "0":
		*b = false
	default:
		return fmt.Errorf("invalid grading value %s", data)
	}
	return nil
}

// Submit grades one answer sheet. The answer key length and question count
// are validated locally before any network I/O; a mismatch never reaches the
// service. On success the returned result satisfies the GradedResult
// invariants and carries the annotated image as a single data URL.
func (c *Client) Submit(ctx context.Context, img model.NormalizedImage, questions int, key answerkey.Key) (model.GradedResult, error) {
	if questions < answerkey.MinQuestions || questions > answerkey.MaxQuestions {
		return model.GradedResult{}, &answerkey.ValidationError{
			Msg: fmt.Sprintf("question count must be between %d and %d, got %d", answerkey.MinQuestions, answerkey.MaxQuestions, questions),
		}
	}
	if len(key) != questions {
		return model.GradedResult{}, &answerkey.ValidationError{
			Msg: fmt.Sprintf("answer key has %d entries, expected %d", len(key), questions),
		}
	}

	body, contentType, err := buildForm(img.Path, questions, key)
	if err != nil {
		return model.GradedResult{}, fmt.Errorf("build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+processPath, body)
	if err != nil {
		return model.GradedResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	slog.Debug("submitting sheet for grading", "url", c.baseURL+processPath, "questions", questions)
	resp, err := c.http.Do(req)
	if err != nil {
		return model.GradedResult{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.GradedResult{}, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.GradedResult{}, decodeError(resp.StatusCode, raw)
	}
	return decodeResult(raw)
}

func buildForm(imagePath string, questions int, key answerkey.Key) (*bytes.Buffer, string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", "exam_sheet.jpg")
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}

	if err := w.WriteField("questions", strconv.Itoa(questions)); err != nil {
		return nil, "", err
	}
	answers, err := json.Marshal([]int(key))
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("answers", string(answers)); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func decodeError(status int, raw []byte) error {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err != nil || er.Error == "" {
		// No structured error body; keep whatever the service said.
		return &ServiceError{StatusCode: status, Message: strings.TrimSpace(string(raw))}
	}
	return &ServiceError{StatusCode: status, Message: er.Error, Details: er.Details}
}

func decodeResult(raw []byte) (model.GradedResult, error) {
	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return model.GradedResult{}, &ProtocolError{Err: err}
	}

	grading := make([]bool, len(r.Grading))
	correct := 0
	for i, g := range r.Grading {
		grading[i] = bool(g)
		if g {
			correct++
		}
	}

	if r.Total != len(grading) {
		return model.GradedResult{}, &ProtocolError{Err: fmt.Errorf("total %d does not match %d grading entries", r.Total, len(grading))}
	}
	if r.Correct != correct {
		return model.GradedResult{}, &ProtocolError{Err: fmt.Errorf("correct %d does not match %d true grading entries", r.Correct, correct)}
	}
	if r.Score < 0 {
		return model.GradedResult{}, &ProtocolError{Err: fmt.Errorf("negative score %d", r.Score)}
	}

	return model.GradedResult{
		Score:          r.Score,
		Correct:        r.Correct,
		Total:          r.Total,
		Grading:        grading,
		AnnotatedImage: annotatedImageURL(r.Image, r.ImageType),
	}, nil
}

// annotatedImageURL combines the returned image bytes and their declared MIME
// subtype into one self-describing reference. The subtype is not exposed
// beyond this step.
func annotatedImageURL(b64, subtype string) string {
	if b64 == "" {
		return ""
	}
	return fmt.Sprintf("data:image/%s;base64,%s", subtype, b64)
}
