package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
)

type inquiryRepository struct {
	db *sql.DB
}

// NewInquiryRepository creates a new InquiryRepository backed by Postgres.
func NewInquiryRepository(db *sql.DB) repository.InquiryRepository {
	return &inquiryRepository{db: db}
}

func (r *inquiryRepository) Create(ctx context.Context, inq *entity.Inquiry) error {
	attachments := inq.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	payload, err := json.Marshal(attachments)
	if err != nil {
		return fmt.Errorf("failed to encode attachments: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO inquiries (id, name, email, phone, budget, piece_type, message, attachments, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inq.ID, inq.Name, inq.Email, inq.Phone, inq.Budget, inq.PieceType, inq.Message, payload, inq.Status, inq.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert inquiry: %w", err)
	}
	return nil
}

func (r *inquiryRepository) List(ctx context.Context, status string, limit int) ([]entity.Inquiry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, phone, budget, piece_type, message, attachments, status, created_at
		 FROM inquiries WHERE ($1::text = '' OR status = $1) ORDER BY created_at DESC LIMIT $2`,
		status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query inquiries: %w", err)
	}
	defer rows.Close()

	inquiries := []entity.Inquiry{}
	for rows.Next() {
		var (
			inq         entity.Inquiry
			attachments []byte
		)
		if err := rows.Scan(&inq.ID, &inq.Name, &inq.Email, &inq.Phone, &inq.Budget, &inq.PieceType, &inq.Message, &attachments, &inq.Status, &inq.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inquiry: %w", err)
		}
		if err := json.Unmarshal(attachments, &inq.Attachments); err != nil {
			return nil, fmt.Errorf("failed to decode attachments of %s: %w", inq.ID, err)
		}
		inquiries = append(inquiries, inq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inquiry rows: %w", err)
	}
	return inquiries, nil
}

func (r *inquiryRepository) UpdateStatus(ctx context.Context, inquiryID, status string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE inquiries SET status = $1 WHERE id = $2", status, inquiryID)
	if err != nil {
		return fmt.Errorf("failed to update inquiry status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", entity.ErrInquiryNotFound, inquiryID)
	}
	return nil
}
