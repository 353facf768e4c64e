// Package report stores lost property and maintenance reports with photo
// attachments and hands them to the notification workers.
package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cleaning-session-backend/config"
	"cleaning-session-backend/internal/model"
)

var (
	ErrNotFound = errors.New("report not found")
	ErrInvalid  = errors.New("invalid report")
)

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PropertyLookup resolves property ids against the reference catalog.
type PropertyLookup interface {
	Property(id string) (model.PropertySnapshot, bool)
}

// Dispatcher queues a stored report for delivery and alerts.
type Dispatcher interface {
	Dispatch(reportID string)
}

// NewReport is the user input for a report.
type NewReport struct {
	Kind        model.ReportKind
	PropertyID  string
	CleanerID   string
	Description string
}

// Photo is an uploaded attachment held in memory.
type Photo struct {
	FileName string
	Data     []byte
}

// Service creates and queries reports.
type Service struct {
	db         *gorm.DB
	cfg        config.ReportsConfig
	properties PropertyLookup
	dispatcher Dispatcher
	now        func() time.Time
}

// NewService creates a report service. dispatcher may be nil.
func NewService(db *gorm.DB, cfg config.ReportsConfig, properties PropertyLookup, dispatcher Dispatcher) *Service {
	return &Service{
		db:         db,
		cfg:        cfg,
		properties: properties,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Create validates and stores a report and its photos, then dispatches it.
func (s *Service) Create(ctx context.Context, in NewReport, photos []Photo) (*model.Report, error) {
	if err := s.validate(in, photos); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rep := model.Report{
		ID:          uuid.NewString(),
		Kind:        in.Kind,
		PropertyID:  in.PropertyID,
		CleanerID:   in.CleanerID,
		Description: strings.TrimSpace(in.Description),
		SyncStatus:  model.SyncPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	dir := filepath.Join(s.cfg.UploadDir, rep.ID)
	if len(photos) > 0 {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}
	for _, p := range photos {
		contentType := http.DetectContentType(p.Data)
		photo := model.ReportPhoto{
			ID:          uuid.NewString(),
			ReportID:    rep.ID,
			FileName:    filepath.Base(p.FileName),
			ContentType: contentType,
			Size:        int64(len(p.Data)),
			CreatedAt:   now,
		}
		photo.Path = filepath.Join(dir, photo.ID+photoExtensions[contentType])
		if err := os.WriteFile(photo.Path, p.Data, 0o644); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("failed to store photo %q: %w", photo.FileName, err)
		}
		rep.Photos = append(rep.Photos, photo)
	}

	if err := s.db.WithContext(ctx).Create(&rep).Error; err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	log.Printf("Stored %s report %s for property %s with %d photos", rep.Kind, rep.ID, rep.PropertyID, len(rep.Photos))

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(rep.ID)
	}
	return &rep, nil
}

func (s *Service) validate(in NewReport, photos []Photo) error {
	if !in.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalid, in.Kind)
	}
	if in.CleanerID == "" {
		return fmt.Errorf("%w: cleaner is required", ErrInvalid)
	}
	if _, ok := s.properties.Property(in.PropertyID); !ok {
		return fmt.Errorf("%w: unknown property %q", ErrInvalid, in.PropertyID)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalid)
	}
	if len(photos) > s.cfg.MaxPhotos {
		return fmt.Errorf("%w: at most %d photos allowed", ErrInvalid, s.cfg.MaxPhotos)
	}
	for _, p := range photos {
		if int64(len(p.Data)) > s.cfg.MaxPhotoBytes {
			return fmt.Errorf("%w: photo %q exceeds %d bytes", ErrInvalid, p.FileName, s.cfg.MaxPhotoBytes)
		}
		if _, ok := photoExtensions[http.DetectContentType(p.Data)]; !ok {
			return fmt.Errorf("%w: photo %q is not a supported image", ErrInvalid, p.FileName)
		}
	}
	return nil
}

// Get returns a report with its photos.
func (s *Service) Get(ctx context.Context, id string) (*model.Report, error) {
	var rep model.Report
	err := s.db.WithContext(ctx).Preload("Photos").First(&rep, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", id, err)
	}
	return &rep, nil
}

// List returns reports newest first, optionally limited to one property.
func (s *Service) List(ctx context.Context, propertyID string) ([]model.Report, error) {
	q := s.db.WithContext(ctx).Preload("Photos").Order("created_at DESC")
	if propertyID != "" {
		q = q.Where("property_id = ?", propertyID)
	}
	var reports []model.Report
	if err := q.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}
