package packaging

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shadow7-backend/internal/shared/server/respond"
)

// Handler wires the packaging endpoints to the assembler.
type Handler struct {
	Asm *Assembler
}

// NewHandler constructs a Handler.
func NewHandler(asm *Assembler) *Handler {
	return &Handler{Asm: asm}
}

// RegisterRoutes attaches packaging routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/package", h.createPackage)
	rg.GET("/download/:code", h.download)
}

type packageRequest struct {
	TrackingID string `json:"tracking_id"`
}

func (h *Handler) createPackage(c *gin.Context) {
	var req packageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	result, err := h.Asm.Assemble(c.Request.Context(), req.TrackingID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "request not found: "+req.TrackingID, nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to assemble package", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"success":      true,
		"download_url": result.DownloadURL,
		"expires_at":   result.ExpiresAt,
		"total_words":  result.TotalWords,
	})
}

func (h *Handler) download(c *gin.Context) {
	code := c.Param("code")

	delivery, fileName, err := h.Asm.Download(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "request not found: "+code, nil)
		case errors.Is(err, ErrNotReady):
			respond.Error(c, http.StatusBadRequest, "not_ready", "request has not completed yet", nil)
		case errors.Is(err, ErrExpired):
			respond.Error(c, http.StatusGone, "expired", "download link has expired", nil)
		case errors.Is(err, ErrFileMissing):
			respond.Error(c, http.StatusNotFound, "file_missing", "package file is not available", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to serve download", nil)
		}
		return
	}

	c.FileAttachment(delivery.ZipFilePath, fileName)
}
