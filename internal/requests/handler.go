package requests

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shadow7-backend/internal/intake"
	"shadow7-backend/internal/shared/server/respond"
	"shadow7-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc    *Service
	Limits intake.Limits
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, limits intake.Limits) *Handler {
	return &Handler{Svc: svc, Limits: limits}
}

// RegisterRoutes attaches request routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/submit", h.submit)
	rg.POST("/upload", h.upload)
	rg.GET("/track/:code", h.track)
	rg.POST("/callback", h.callback)
}

type submitRequest struct {
	UserEmail      string `json:"user_email"`
	UserName       string `json:"user_name"`
	RawText        string `json:"raw_text"`
	TargetAudience string `json:"target_audience"`
	BookGenre      string `json:"book_genre"`
	ToneOfVoice    string `json:"tone_of_voice"`
	Platform       string `json:"platform"`
	Language       string `json:"language"`
	FileName       string `json:"file_name"`
}

func (h *Handler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.UserEmail) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "user_email is required", nil)
		return
	}
	if strings.TrimSpace(req.RawText) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "raw_text is required", nil)
		return
	}

	created, err := h.Svc.Submit(c.Request.Context(), SubmitInput{
		UserEmail:      req.UserEmail,
		UserName:       req.UserName,
		RawText:        req.RawText,
		TargetAudience: req.TargetAudience,
		BookGenre:      req.BookGenre,
		ToneOfVoice:    req.ToneOfVoice,
		Platform:       req.Platform,
		Language:       req.Language,
		FileName:       req.FileName,
		IPAddress:      c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
	})
	if err != nil {
		respondSubmitError(c, err)
		return
	}

	respond.JSON(c, http.StatusOK, submitResponse(created))
}

func (h *Handler) upload(c *gin.Context) {
	maxBody := h.Limits.MaxFileBytes*intake.MaxFiles + (1 << 20)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid multipart form", nil)
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}

	files, err := readUploadFiles(headers)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read uploaded files", nil)
		return
	}

	merged, err := intake.MergeAndValidate(c.Request.Context(), files, h.Limits)
	if err != nil {
		respondSubmitError(c, err)
		return
	}

	created, err := h.Svc.Submit(c.Request.Context(), SubmitInput{
		UserEmail:      c.PostForm("user_email"),
		UserName:       c.PostForm("user_name"),
		RawText:        merged.MergedText,
		TargetAudience: c.PostForm("target_audience"),
		BookGenre:      c.PostForm("book_genre"),
		ToneOfVoice:    c.PostForm("tone_of_voice"),
		Platform:       c.PostForm("platform"),
		Language:       c.PostForm("language"),
		FileName:       strings.Join(merged.FileNames, ", "),
		IPAddress:      c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
	})
	if err != nil {
		respondSubmitError(c, err)
		return
	}

	respond.JSON(c, http.StatusOK, submitResponse(created))
}

func (h *Handler) track(c *gin.Context) {
	code := c.Param("code")

	view, err := h.Svc.Track(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "request not found: "+code, nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch request", nil)
		}
		return
	}

	resp := gin.H{
		"tracking_id":  view.TrackingCode,
		"status":       view.Status,
		"progress":     view.Progress,
		"current_step": view.CurrentStep,
		"created_at":   view.CreatedAt,
		"started_at":   view.StartedAt,
		"completed_at": view.CompletedAt,
	}
	if view.ErrorMessage != "" {
		resp["error_message"] = view.ErrorMessage
	}
	if view.Delivery != nil {
		resp["download_url"] = view.Delivery.DownloadURL
		resp["expires_at"] = view.Delivery.ExpiresAt
	}

	respond.JSON(c, http.StatusOK, resp)
}

type callbackRequest struct {
	TrackingID   string `json:"tracking_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	// The workflow sometimes sends "error" instead of "error_message".
	Error string `json:"error"`
}

func (h *Handler) callback(c *gin.Context) {
	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	errMsg := req.ErrorMessage
	if errMsg == "" {
		errMsg = req.Error
	}

	err := h.Svc.HandleCompletion(c.Request.Context(), req.TrackingID, req.Status, errMsg)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			// Never error back to the workflow for an unknown code: it must
			// not retry indefinitely against a typo'd tracking id.
			telemetry.Warn("completion callback for unknown tracking code", map[string]any{
				"tracking_code": req.TrackingID,
			})
			respond.JSON(c, http.StatusOK, gin.H{"received": true})
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "status must be completed or failed", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to apply callback", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"received": true})
}

func submitResponse(req ManuscriptRequest) gin.H {
	return gin.H{
		"success":        true,
		"tracking_id":    req.TrackingCode,
		"word_count":     req.WordCountIn,
		"message":        "تم استلام مخطوطتك بنجاح. رقم التتبع: " + req.TrackingCode,
		"estimated_time": "30-60 دقيقة",
	}
}

func respondSubmitError(c *gin.Context, err error) {
	var wce *intake.WordCountError
	var ute *intake.UnsupportedFileTypeError
	var fte *intake.FileTooLargeError
	switch {
	case errors.As(err, &wce):
		details := gin.H{"word_count": wce.Count}
		if wce.Below {
			details["minimum"] = wce.Bound
		} else {
			details["maximum"] = wce.Bound
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", wce.Error(), details)
	case errors.As(err, &ute):
		respond.Error(c, http.StatusBadRequest, "validation_error", ute.Error(), nil)
	case errors.As(err, &fte):
		respond.Error(c, http.StatusBadRequest, "validation_error", fte.Error(), nil)
	case errors.Is(err, intake.ErrTooManyOrNoFiles):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "user_email is required", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create request", nil)
	}
}

func readUploadFiles(headers []*multipart.FileHeader) ([]intake.File, error) {
	files := make([]intake.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, intake.File{Name: fh.Filename, Data: data})
	}
	return files, nil
}
