package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"cleaning-session-backend/internal/model"
	"cleaning-session-backend/internal/report"
)

// CreateReport handles POST /api/reports as multipart/form-data with fields
// kind, propertyId, cleanerId, description and zero or more "photos" files.
func (h *Handler) CreateReport(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form"})
		return
	}

	in := report.NewReport{
		Kind:        model.ReportKind(c.PostForm("kind")),
		PropertyID:  c.PostForm("propertyId"),
		CleanerID:   c.PostForm("cleanerId"),
		Description: c.PostForm("description"),
	}

	var photos []report.Photo
	for _, fh := range form.File["photos"] {
		data, err := h.readPhoto(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		photos = append(photos, report.Photo{FileName: fh.Filename, Data: data})
	}

	rep, err := h.reports.Create(c.Request.Context(), in, photos)
	if errors.Is(err, report.ErrInvalid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("Error creating report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store report"})
		return
	}
	c.JSON(http.StatusCreated, rep)
}

func (h *Handler) readPhoto(fh *multipart.FileHeader) ([]byte, error) {
	if h.maxPhotoBytes > 0 && fh.Size > h.maxPhotoBytes {
		return nil, fmt.Errorf("photo %q exceeds %d bytes", fh.Filename, h.maxPhotoBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open photo %q: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// ListReports handles GET /api/reports.
func (h *Handler) ListReports(c *gin.Context) {
	reports, err := h.reports.List(c.Request.Context(), c.Query("propertyId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}
	c.JSON(http.StatusOK, reports)
}

// GetReport handles GET /api/reports/:id.
func (h *Handler) GetReport(c *gin.Context) {
	rep, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, report.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	c.JSON(http.StatusOK, rep)
}
