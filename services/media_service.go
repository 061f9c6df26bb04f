package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/clinisim/simulator-api/model"
	"github.com/clinisim/simulator-api/services/spaces"
	"github.com/clinisim/simulator-api/utils/pdfvalidation"
	"gorm.io/gorm"
)

var (
	// ErrStorageUnavailable is returned when object storage is not configured
	ErrStorageUnavailable = errors.New("object storage is not configured")
	// ErrUnsupportedMedia is returned for file types a media kind does not accept
	ErrUnsupportedMedia = errors.New("unsupported media file type")
)

// imageMaxBytes caps case image uploads at 10MB
const imageMaxBytes = 10 * 1024 * 1024

// audioMaxBytes caps case audio uploads at 50MB
const audioMaxBytes = 50 * 1024 * 1024

// MediaService handles case media uploads: images, audio recordings and
// reference PDFs. Reference PDFs are validated and sanitized before upload.
type MediaService struct {
	db     *gorm.DB
	spaces *spaces.Client // may be nil when storage is not configured
}

// NewMediaService creates a new media service
func NewMediaService(db *gorm.DB, spacesClient *spaces.Client) *MediaService {
	return &MediaService{db: db, spaces: spacesClient}
}

// UploadInput describes one media upload
type UploadInput struct {
	Kind              model.MediaKind
	File              *multipart.FileHeader
	CaseID            *uint
	ContributedCaseID *uint
	UploadedByUserID  uint
}

// Upload validates, stores and records one media file. Exactly one of
// CaseID and ContributedCaseID must be set.
func (s *MediaService) Upload(ctx context.Context, input UploadInput) (*model.CaseMedia, error) {
	if s.spaces == nil {
		return nil, ErrStorageUnavailable
	}
	if (input.CaseID == nil) == (input.ContributedCaseID == nil) {
		return nil, fmt.Errorf("exactly one of case_id and contributed_case_id must be set")
	}

	media := &model.CaseMedia{
		CaseID:            input.CaseID,
		ContributedCaseID: input.ContributedCaseID,
		Kind:              input.Kind,
		Filename:          input.File.Filename,
		ContentType:       spaces.GetContentType(input.File.Filename),
		FileSize:          input.File.Size,
		UploadedByUserID:  input.UploadedByUserID,
	}

	var content []byte
	switch input.Kind {
	case model.MediaKindReference:
		result, err := pdfvalidation.ValidatePDFFile(input.File, pdfvalidation.ReferenceLimits)
		if err != nil {
			return nil, fmt.Errorf("failed to validate reference document: %w", err)
		}
		if !result.Valid {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, result.Error)
		}
		media.PageCount = result.PageCount

		content, err = readUpload(input.File)
		if err != nil {
			return nil, err
		}
	case model.MediaKindImage:
		if err := checkExtension(input.File, imageMaxBytes, ".png", ".jpg", ".jpeg", ".webp"); err != nil {
			return nil, err
		}
		var err error
		content, err = readUpload(input.File)
		if err != nil {
			return nil, err
		}
	case model.MediaKindAudio:
		if err := checkExtension(input.File, audioMaxBytes, ".mp3", ".wav", ".ogg"); err != nil {
			return nil, err
		}
		var err error
		content, err = readUpload(input.File)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown media kind %q", ErrUnsupportedMedia, input.Kind)
	}

	key := spaces.GenerateKey(storagePrefix(input), input.File.Filename)
	url, err := s.spaces.UploadBytes(ctx, key, content, media.ContentType)
	if err != nil {
		return nil, err
	}
	media.StorageKey = key
	media.StorageURL = url

	if err := s.db.WithContext(ctx).Create(media).Error; err != nil {
		// Best effort cleanup of the orphaned object
		_ = s.spaces.DeleteFile(ctx, key)
		return nil, fmt.Errorf("failed to record media: %w", err)
	}

	return media, nil
}

// ListForCase returns all media attached to a published case
func (s *MediaService) ListForCase(ctx context.Context, caseID uint) ([]model.CaseMedia, error) {
	var media []model.CaseMedia
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at ASC").
		Find(&media).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list case media: %w", err)
	}
	return media, nil
}

// ListForContribution returns all media attached to a contributed case
func (s *MediaService) ListForContribution(ctx context.Context, contributedCaseID uint) ([]model.CaseMedia, error) {
	var media []model.CaseMedia
	err := s.db.WithContext(ctx).
		Where("contributed_case_id = ?", contributedCaseID).
		Order("created_at ASC").
		Find(&media).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contribution media: %w", err)
	}
	return media, nil
}

// Delete removes a media record and its stored object
func (s *MediaService) Delete(ctx context.Context, mediaID uint) error {
	var media model.CaseMedia
	if err := s.db.WithContext(ctx).First(&media, mediaID).Error; err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&media).Error; err != nil {
		return fmt.Errorf("failed to delete media record: %w", err)
	}

	if s.spaces != nil && media.StorageKey != "" {
		if err := s.spaces.DeleteFile(ctx, media.StorageKey); err != nil {
			return fmt.Errorf("media record deleted but storage cleanup failed: %w", err)
		}
	}
	return nil
}

func storagePrefix(input UploadInput) string {
	if input.ContributedCaseID != nil {
		return fmt.Sprintf("contributions/%d/%s", *input.ContributedCaseID, input.Kind)
	}
	return fmt.Sprintf("cases/%d/%s", *input.CaseID, input.Kind)
}

func checkExtension(file *multipart.FileHeader, maxBytes int64, allowed ...string) error {
	if file.Size > maxBytes {
		return fmt.Errorf("%w: file exceeds %dMB limit", ErrUnsupportedMedia, maxBytes/(1024*1024))
	}
	name := strings.ToLower(file.Filename)
	for _, ext := range allowed {
		if strings.HasSuffix(name, ext) {
			return nil
		}
	}
	return fmt.Errorf("%w: allowed extensions are %s", ErrUnsupportedMedia, strings.Join(allowed, ", "))
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return content, nil
}
