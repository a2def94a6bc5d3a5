package requests

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"shadow7-backend/internal/engine"
	"shadow7-backend/internal/intake"
	"shadow7-backend/internal/joblog"
)

func testRouter(repo Repo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := &Service{
		Repo:     repo,
		Log:      joblog.NewMemory(),
		Engine:   engine.Noop{},
		MinWords: 5,
		MaxWords: 100,
	}
	h := NewHandler(svc, intake.Limits{MinWords: 5, MaxWords: 100, MaxFileBytes: 1 << 20})

	r := gin.New()
	h.RegisterRoutes(r.Group("/api/shadow7"))
	return r
}

func TestSubmitEndpoint(t *testing.T) {
	router := testRouter(NewMemoryRepo())

	body, _ := json.Marshal(map[string]string{
		"user_email": "author@example.com",
		"raw_text":   "خمس كلمات على الأقل في هذا النص",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/shadow7/submit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got struct {
		Success    bool   `json:"success"`
		TrackingID string `json:"tracking_id"`
		WordCount  int    `json:"word_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !got.Success || !strings.HasPrefix(got.TrackingID, "S7-") {
		t.Fatalf("unexpected response: %+v", got)
	}
	if got.WordCount != 7 {
		t.Fatalf("expected word_count 7, got %d", got.WordCount)
	}
}

func TestSubmitEndpointRequiresEmail(t *testing.T) {
	router := testRouter(NewMemoryRepo())

	body, _ := json.Marshal(map[string]string{"raw_text": "نص بدون بريد إلكتروني هنا الآن"})
	req := httptest.NewRequest(http.MethodPost, "/api/shadow7/submit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSubmitEndpointWordCountDetails(t *testing.T) {
	router := testRouter(NewMemoryRepo())

	body, _ := json.Marshal(map[string]string{
		"user_email": "author@example.com",
		"raw_text":   "قصير جدا",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/shadow7/submit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var got struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				WordCount int `json:"word_count"`
				Minimum   int `json:"minimum"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %q", got.Error.Code)
	}
	if got.Error.Details.WordCount != 2 || got.Error.Details.Minimum != 5 {
		t.Fatalf("unexpected details: %+v", got.Error.Details)
	}
}

func TestUploadEndpointMergesFiles(t *testing.T) {
	repo := NewMemoryRepo()
	router := testRouter(repo)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("user_email", "author@example.com")
	for _, part := range []struct{ name, text string }{
		{"part1.txt", "الفصل الأول من الكتاب"},
		{"part2.txt", "الفصل الثاني من الكتاب"},
	} {
		fw, err := writer.CreateFormFile("files", part.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(part.text)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/shadow7/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got struct {
		TrackingID string `json:"tracking_id"`
		WordCount  int    `json:"word_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.WordCount != 8 {
		t.Fatalf("expected 8 merged words, got %d", got.WordCount)
	}

	stored, err := repo.GetByTrackingCode(context.Background(), got.TrackingID)
	if err != nil {
		t.Fatalf("GetByTrackingCode: %v", err)
	}
	if stored.FileName != "part1.txt, part2.txt" {
		t.Fatalf("expected joined file names, got %q", stored.FileName)
	}
}

func TestTrackEndpointNotFound(t *testing.T) {
	router := testRouter(NewMemoryRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/shadow7/track/S7-MISSING1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestCallbackEndpointAcksUnknownCode(t *testing.T) {
	router := testRouter(NewMemoryRepo())

	body, _ := json.Marshal(map[string]string{
		"tracking_id": "S7-MISSING1",
		"status":      StatusCompleted,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/shadow7/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unknown code must be acked with 200, got %d", resp.Code)
	}
}

func TestCallbackEndpointAcceptsErrorAlias(t *testing.T) {
	repo := NewMemoryRepo()
	router := testRouter(repo)

	ctx := context.Background()
	if err := repo.Create(ctx, ManuscriptRequest{TrackingCode: "S7-1A2B3C4D", Status: StatusPackaging}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	body, _ := json.Marshal(map[string]string{
		"tracking_id": "S7-1A2B3C4D",
		"status":      StatusFailed,
		"error":       "engine crashed",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/shadow7/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	got, _ := repo.GetByTrackingCode(ctx, "S7-1A2B3C4D")
	if got.Status != StatusFailed || got.ErrorMessage != "engine crashed" {
		t.Fatalf("expected failed with message, got %s/%q", got.Status, got.ErrorMessage)
	}
}

func TestCallbackEndpointRejectsNonTerminalStatus(t *testing.T) {
	repo := NewMemoryRepo()
	router := testRouter(repo)

	if err := repo.Create(context.Background(), ManuscriptRequest{TrackingCode: "S7-1A2B3C4D", Status: StatusPending}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	body, _ := json.Marshal(map[string]string{
		"tracking_id": "S7-1A2B3C4D",
		"status":      StatusOutlining,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/shadow7/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
