package repository

import (
	"context"

	"uaijus-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FilingRepository handles database operations for court filings
type FilingRepository struct {
	db *pgxpool.Pool
}

// NewFilingRepository creates a new filing repository
func NewFilingRepository(db *pgxpool.Pool) *FilingRepository {
	return &FilingRepository{db: db}
}

// Create creates a new filing record
func (r *FilingRepository) Create(ctx context.Context, filing *models.Filing) error {
	query := `
		INSERT INTO filings (
			user_id, case_id, filename, mime_type, size, storage_path
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		filing.UserID,
		filing.CaseID,
		filing.Filename,
		filing.MimeType,
		filing.Size,
		filing.StoragePath,
	).Scan(&filing.ID, &filing.CreatedAt)

	return err
}

// GetByID retrieves a filing by ID
func (r *FilingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Filing, error) {
	filing := &models.Filing{}
	query := `
		SELECT id, user_id, case_id, filename, mime_type, size, storage_path, created_at
		FROM filings
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&filing.ID,
		&filing.UserID,
		&filing.CaseID,
		&filing.Filename,
		&filing.MimeType,
		&filing.Size,
		&filing.StoragePath,
		&filing.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return filing, nil
}

// ListByCase retrieves all filings attached to a case
func (r *FilingRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]models.Filing, error) {
	query := `
		SELECT id, user_id, case_id, filename, mime_type, size, storage_path, created_at
		FROM filings
		WHERE case_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var filings []models.Filing
	for rows.Next() {
		var f models.Filing
		err := rows.Scan(
			&f.ID,
			&f.UserID,
			&f.CaseID,
			&f.Filename,
			&f.MimeType,
			&f.Size,
			&f.StoragePath,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		filings = append(filings, f)
	}

	return filings, rows.Err()
}

// Delete removes a filing record
func (r *FilingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, "DELETE FROM filings WHERE id = $1", id)
	return err
}
