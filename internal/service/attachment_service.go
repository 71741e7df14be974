package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"propval/internal/config"
	"propval/internal/domain"
	"propval/internal/port"
)

// AttachmentUploadInput is the DTO for attachment upload requests.
type AttachmentUploadInput struct {
	Identity domain.Identity
	Variant  domain.FormVariant
	RecordID string
	File     multipart.File
	Header   *multipart.FileHeader
}

// AttachmentService manages property photos and scans stored against a
// valuation record. Access rides on the record's own lifecycle rules:
// listing requires read permission, uploading requires that the caller could
// currently edit the record.
type AttachmentService interface {
	Upload(ctx context.Context, input AttachmentUploadInput) (*domain.Attachment, error)
	ListByRecord(ctx context.Context, id domain.Identity, variant domain.FormVariant, recordID string) ([]domain.Attachment, error)
	GetDownloadURL(ctx context.Context, id domain.Identity, variant domain.FormVariant, recordID string, attID uuid.UUID) (string, error)
}

type attachmentService struct {
	attRepo port.AttachmentRepository
	storage port.ObjectStorage
	cfg     *config.S3Config
	records map[domain.FormVariant]RecordService
}

// NewAttachmentService creates a new AttachmentService implementation.
func NewAttachmentService(
	attRepo port.AttachmentRepository,
	storage port.ObjectStorage,
	cfg *config.S3Config,
	records map[domain.FormVariant]RecordService,
) AttachmentService {
	return &attachmentService{
		attRepo: attRepo,
		storage: storage,
		cfg:     cfg,
		records: records,
	}
}

// resolveRecord fetches the record through the variant's record service so
// tenant isolation and read permission apply exactly as on a direct fetch.
func (s *attachmentService) resolveRecord(ctx context.Context, id domain.Identity, variant domain.FormVariant, recordID string) (*domain.ValuationRecord, error) {
	rs, ok := s.records[variant]
	if !ok {
		return nil, domain.ErrUnknownVariant
	}
	return rs.GetByID(ctx, id, recordID)
}

func (s *attachmentService) Upload(ctx context.Context, input AttachmentUploadInput) (*domain.Attachment, error) {
	rec, err := s.resolveRecord(ctx, input.Identity, input.Variant, input.RecordID)
	if err != nil {
		return nil, err
	}
	// Photos land on records being worked on, not on ones awaiting review.
	if err := domain.CheckTransition(domain.OpEdit, input.Identity, rec); err != nil {
		return nil, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if input.Header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Magic-byte sniff; the extension alone is not trusted.
	buf := make([]byte, 512)
	n, err := input.File.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading file header: %w", err)
	}
	detectedType := http.DetectContentType(buf[:n])
	if _, validContent := domain.AllowedContentTypes[detectedType]; !validContent {
		return nil, domain.ErrUnsupportedFileType
	}
	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}

	attID := uuid.New()
	s3Key := fmt.Sprintf("clients/%s/records/%s/attachments/%s/%s",
		rec.ClientID, rec.ID, attID, input.Header.Filename)
	contentType := domain.AllowedFileTypes[fileType]

	att := &domain.Attachment{
		ID:           attID,
		ClientID:     rec.ClientID,
		RecordID:     rec.ID,
		Variant:      input.Variant,
		FileName:     attID.String() + "." + ext,
		OriginalName: input.Header.Filename,
		FileType:     fileType,
		FileSize:     input.Header.Size,
		S3Bucket:     s.cfg.Bucket,
		S3Key:        s3Key,
		ContentType:  contentType,
		UploadedBy:   input.Identity.Username,
	}

	log.Printf("attachmentService.Upload: %s (%s, %d bytes) for record %s by %s",
		input.Header.Filename, contentType, input.Header.Size, rec.UniqueID, input.Identity.Username)

	if err := s.attRepo.Create(ctx, att); err != nil {
		return nil, fmt.Errorf("creating attachment metadata: %w", err)
	}

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         s3Key,
		Body:        input.File,
		ContentType: contentType,
		Size:        input.Header.Size,
		Metadata: map[string]string{
			"client-id":   rec.ClientID,
			"record-id":   rec.ID.String(),
			"uploaded-by": input.Identity.Username,
		},
	})
	if err != nil {
		log.Printf("attachmentService.Upload: storage upload failed for %s: %v", att.ID, err)
		if delErr := s.attRepo.Delete(ctx, att.ClientID, att.ID); delErr != nil {
			log.Printf("attachmentService.Upload: orphan metadata cleanup failed for %s: %v", att.ID, delErr)
		}
		return nil, domain.ErrUploadFailed
	}

	return att, nil
}

func (s *attachmentService) ListByRecord(ctx context.Context, id domain.Identity, variant domain.FormVariant, recordID string) ([]domain.Attachment, error) {
	rec, err := s.resolveRecord(ctx, id, variant, recordID)
	if err != nil {
		return nil, err
	}
	return s.attRepo.ListByRecord(ctx, rec.ClientID, rec.ID)
}

func (s *attachmentService) GetDownloadURL(ctx context.Context, id domain.Identity, variant domain.FormVariant, recordID string, attID uuid.UUID) (string, error) {
	rec, err := s.resolveRecord(ctx, id, variant, recordID)
	if err != nil {
		return "", err
	}
	att, err := s.attRepo.GetByID(ctx, rec.ClientID, attID)
	if err != nil {
		return "", err
	}
	if att.RecordID != rec.ID {
		return "", domain.ErrNotFound
	}
	return s.storage.GetPresignedURL(ctx, att.S3Bucket, att.S3Key, s.cfg.PresignExpiry)
}
