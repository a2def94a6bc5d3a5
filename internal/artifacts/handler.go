package artifacts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shadow7-backend/internal/requests"
	"shadow7-backend/internal/shared/server/respond"
	"shadow7-backend/internal/shared/telemetry"
)

// Handler wires the workflow-facing callback endpoints to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches artifact callback routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/outline", h.saveOutline)
	rg.POST("/chapter", h.saveChapter)
	rg.POST("/progress", h.updateProgress)
	rg.POST("/reports", h.saveReports)
}

type outlineRequest struct {
	TrackingID string `json:"tracking_id"`
	Outline    struct {
		BookTitle        string        `json:"book_title"`
		Subtitle         string        `json:"subtitle"`
		BookSummary      string        `json:"book_summary"`
		Chapters         []ChapterStub `json:"chapters"`
		TotalChapters    int           `json:"total_chapters"`
		ModelUsed        string        `json:"model_used"`
		GenerationTimeMS int64         `json:"generation_time_ms"`
	} `json:"outline"`
}

func (h *Handler) saveOutline(c *gin.Context) {
	var req outlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	requestID, err := h.Svc.SaveOutline(c.Request.Context(), req.TrackingID, OutlineInput{
		BookTitle:        req.Outline.BookTitle,
		BookSubtitle:     req.Outline.Subtitle,
		BookSummary:      req.Outline.BookSummary,
		Chapters:         req.Outline.Chapters,
		ChapterCount:     req.Outline.TotalChapters,
		ModelUsed:        req.Outline.ModelUsed,
		GenerationTimeMS: req.Outline.GenerationTimeMS,
	})
	if err != nil {
		ackCallbackError(c, "outline", req.TrackingID, err)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"success": true, "request_id": requestID})
}

type chapterRequest struct {
	TrackingID    string `json:"tracking_id"`
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	WordCount     int    `json:"word_count"`
	EndingSummary string `json:"ending_summary"`
}

func (h *Handler) saveChapter(c *gin.Context) {
	var req chapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	err := h.Svc.SaveChapter(c.Request.Context(), req.TrackingID, ChapterInput{
		Number:        req.ChapterNumber,
		Title:         req.Title,
		Content:       req.Content,
		WordCount:     req.WordCount,
		EndingSummary: req.EndingSummary,
	})
	if err != nil {
		ackCallbackError(c, "chapter", req.TrackingID, err)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"success": true, "chapter": req.ChapterNumber})
}

type progressRequest struct {
	TrackingID  string `json:"tracking_id"`
	Progress    int    `json:"progress"`
	Status      string `json:"status"`
	CurrentStep string `json:"current_step"`
}

func (h *Handler) updateProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	err := h.Svc.UpdateProgress(c.Request.Context(), req.TrackingID, req.Progress, req.Status, req.CurrentStep)
	if err != nil {
		ackCallbackError(c, "progress", req.TrackingID, err)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"success": true, "progress": req.Progress})
}

type reportsRequest struct {
	TrackingID string                    `json:"tracking_id"`
	Reports    map[string]map[string]any `json:"reports"`
}

func (h *Handler) saveReports(c *gin.Context) {
	var req reportsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	count, err := h.Svc.SaveReports(c.Request.Context(), req.TrackingID, req.Reports)
	if err != nil {
		ackCallbackError(c, "reports", req.TrackingID, err)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"success": true, "reports_count": count})
}

// ackCallbackError acknowledges unknown tracking codes with a 200 so the
// workflow does not retry against a code that will never match, and surfaces
// everything else as a server error.
func ackCallbackError(c *gin.Context, kind, trackingCode string, err error) {
	if errors.Is(err, requests.ErrNotFound) {
		telemetry.Warn(kind+" callback for unknown tracking code", map[string]any{
			"tracking_code": trackingCode,
		})
		respond.JSON(c, http.StatusOK, gin.H{"success": true, "acknowledged": true})
		return
	}
	respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save "+kind, nil)
}
