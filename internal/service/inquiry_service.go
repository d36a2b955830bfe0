package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/jewellery-storefront/internal/attachment"
	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/messaging"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
	"github.com/egannguyen/jewellery-storefront/internal/validation"
)

// InquiryRequest is a bespoke-piece enquiry as submitted by a shopper.
type InquiryRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone" validate:"max=32"`
	Budget    int64  `json:"budget" validate:"gte=0"` // minor units
	PieceType string `json:"piece_type" validate:"omitempty,oneof=ring engagement-ring wedding-band necklace pendant earrings bracelet other"`
	Message   string `json:"message" validate:"required,max=5000"`
}

// File is an uploaded attachment waiting to be stored.
type File struct {
	Name   string
	Reader io.Reader
}

// InquiryService takes in bespoke enquiries and lets staff work through them.
type InquiryService struct {
	repo        repository.InquiryRepository
	attachments attachment.Store
	publisher   messaging.Publisher
	now         func() time.Time
}

func NewInquiryService(repo repository.InquiryRepository, attachments attachment.Store, publisher messaging.Publisher) *InquiryService {
	return &InquiryService{repo: repo, attachments: attachments, publisher: publisher, now: time.Now}
}

// Submit validates and stores an inquiry with up to attachment.MaxFiles
// files. Uploaded files are deleted again if the inquiry cannot be saved.
func (s *InquiryService) Submit(ctx context.Context, req InquiryRequest, files []File) (*entity.Inquiry, error) {
	slog.Info("Service: Submitting inquiry", "email", req.Email, "attachments", len(files))

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if len(files) > attachment.MaxFiles {
		return nil, entity.NewValidationError(entity.ErrInvalidRequest, "attachments", "at most %d files, got %d", attachment.MaxFiles, len(files))
	}

	var phone string
	if p := strings.TrimSpace(req.Phone); p != "" {
		e164, err := validation.PhoneE164(p, validation.DefaultRegion)
		if err != nil {
			return nil, err
		}
		phone = e164
	}

	uploaded := make([]attachment.Uploaded, 0, len(files))
	cleanup := func() {
		for _, u := range uploaded {
			if err := s.attachments.Delete(context.WithoutCancel(ctx), u.PublicID); err != nil {
				slog.Error("Failed to delete orphaned attachment", "public_id", u.PublicID, "err", err)
			}
		}
	}
	for _, f := range files {
		u, err := s.attachments.Upload(ctx, f.Name, f.Reader)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to store attachment %s: %w", f.Name, err)
		}
		uploaded = append(uploaded, u)
	}

	inq := &entity.Inquiry{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     phone,
		Budget:    req.Budget,
		PieceType: req.PieceType,
		Message:   req.Message,
		Status:    entity.InquiryStatusNew,
		CreatedAt: s.now().UTC(),
	}
	for _, u := range uploaded {
		inq.Attachments = append(inq.Attachments, u.URL)
	}

	if err := s.repo.Create(ctx, inq); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to save inquiry: %w", err)
	}

	event := entity.InquiryReceived{InquiryID: inq.ID, Email: inq.Email, ReceivedAt: inq.CreatedAt}
	if err := s.publisher.PublishEvent(ctx, messaging.TopicInquiriesReceived, inq.ID, event); err != nil {
		slog.Error("Failed to publish InquiryReceived", "inquiry_id", inq.ID, "err", err)
	}
	return inq, nil
}

// List returns the newest inquiries, optionally only those in status.
func (s *InquiryService) List(ctx context.Context, status string, limit int) ([]entity.Inquiry, error) {
	if status != "" && !entity.ValidInquiryStatus(status) {
		return nil, entity.NewValidationError(entity.ErrInvalidRequest, "status", "unknown status %q", status)
	}
	if limit <= 0 {
		limit = 100
	}
	return s.repo.List(ctx, status, limit)
}

// UpdateStatus moves an inquiry to status.
func (s *InquiryService) UpdateStatus(ctx context.Context, inquiryID, status string) error {
	slog.Info("Service: Updating inquiry status", "inquiry_id", inquiryID, "status", status)
	if !entity.ValidInquiryStatus(status) {
		return entity.NewValidationError(entity.ErrInvalidRequest, "status", "unknown status %q", status)
	}
	return s.repo.UpdateStatus(ctx, inquiryID, status)
}
