package omni

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"shadow7-backend/internal/intake"
	"shadow7-backend/internal/shared/server/respond"
)

// Handler wires the omni endpoints to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches omni routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/omni/upload", h.upload)
	rg.POST("/omni/purge", h.purge)
}

func (h *Handler) upload(c *gin.Context) {
	maxBody := h.Svc.Limits.MaxFileBytes*intake.MaxFiles + (1 << 20)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid multipart form", nil)
		return
	}

	// The frontend sends numbered slots; arrays come in as files[].
	var files []intake.File
	for i := 1; i <= intake.MaxFiles; i++ {
		headers := form.File[fmt.Sprintf("file_%d", i)]
		if len(headers) == 0 {
			continue
		}
		f, err := readFile(headers[0])
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read uploaded file", nil)
			return
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		for _, key := range []string{"files[]", "files"} {
			for _, fh := range form.File[key] {
				f, err := readFile(fh)
				if err != nil {
					respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read uploaded file", nil)
					return
				}
				files = append(files, f)
			}
			if len(files) > 0 {
				break
			}
		}
	}

	in, err := h.Svc.Upload(c.Request.Context(), files)
	if err != nil {
		respondIntakeError(c, err)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"tracking_id": in.TrackingCode,
		"word_count":  in.WordCount,
		"file_count":  in.FileCount,
		"encoding":    in.Encoding,
	})
}

type purgeRequest struct {
	TrackingID string `json:"tracking_id"`
}

func (h *Handler) purge(c *gin.Context) {
	var req purgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	result, err := h.Svc.Purge(c.Request.Context(), req.TrackingID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "intake not found: "+req.TrackingID, nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "purge failed", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"purge_report":     result.PurgeReport,
		"word_count":       result.WordCount,
		"word_count_after": result.WordCountAfter,
		"anomalies_fixed":  result.AnomaliesFixed,
	})
}

func respondIntakeError(c *gin.Context, err error) {
	var wce *intake.WordCountError
	var ute *intake.UnsupportedFileTypeError
	var fte *intake.FileTooLargeError
	switch {
	case errors.Is(err, intake.ErrTooManyOrNoFiles):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
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
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store intake", nil)
	}
}

func readFile(fh *multipart.FileHeader) (intake.File, error) {
	f, err := fh.Open()
	if err != nil {
		return intake.File{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return intake.File{}, err
	}
	return intake.File{Name: fh.Filename, Data: data}, nil
}
