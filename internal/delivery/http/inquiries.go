package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/egannguyen/jewellery-storefront/internal/attachment"
	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/service"
)

const maxInquiryBody = attachment.MaxFiles*attachment.MaxFileSize + 1<<20

// handleSubmitInquiry accepts a multipart form with the inquiry fields and
// up to attachment.MaxFiles files under "attachments".
func (h *Handler) handleSubmitInquiry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxInquiryBody)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request too large"})
			return
		}
		writeError(w, r, entity.NewValidationError(entity.ErrInvalidRequest, "", "invalid multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := service.InquiryRequest{
		Name:      r.FormValue("name"),
		Email:     r.FormValue("email"),
		Phone:     r.FormValue("phone"),
		PieceType: r.FormValue("piece_type"),
		Message:   r.FormValue("message"),
	}
	if b := strings.TrimSpace(r.FormValue("budget")); b != "" {
		budget, err := strconv.ParseInt(b, 10, 64)
		if err != nil {
			writeError(w, r, entity.NewValidationError(entity.ErrInvalidRequest, "budget", "must be a whole number of pence"))
			return
		}
		req.Budget = budget
	}

	headers := r.MultipartForm.File["attachments"]
	if len(headers) > attachment.MaxFiles {
		writeError(w, r, entity.NewValidationError(entity.ErrInvalidRequest, "attachments", "at most %d files, got %d", attachment.MaxFiles, len(headers)))
		return
	}
	files := make([]service.File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > attachment.MaxFileSize {
			writeError(w, r, entity.NewValidationError(entity.ErrInvalidRequest, "attachments", "%s is larger than %d bytes", fh.Filename, attachment.MaxFileSize))
			return
		}
		f, err := fh.Open()
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer func(f multipart.File) { f.Close() }(f)
		files = append(files, service.File{Name: fh.Filename, Reader: f})
	}

	inq, err := h.svc.Inquiries.Submit(r.Context(), req, files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inq)
}
