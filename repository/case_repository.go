package repository

import (
	"context"
	"fmt"

	"uaijus-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CaseRepository handles database operations for legal cases
type CaseRepository struct {
	db *pgxpool.Pool
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create creates a new case
func (r *CaseRepository) Create(ctx context.Context, legalCase *models.LegalCase) error {
	query := `
		INSERT INTO cases (
			user_id, number, title, case_type, status, summary, issues
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	if legalCase.Issues == nil {
		legalCase.Issues = models.LegalIssues{}
	}

	err := r.db.QueryRow(
		ctx, query,
		legalCase.UserID,
		legalCase.Number,
		legalCase.Title,
		legalCase.CaseType,
		legalCase.Status,
		legalCase.Summary,
		legalCase.Issues,
	).Scan(&legalCase.ID, &legalCase.CreatedAt, &legalCase.UpdatedAt)

	return err
}

// GetByID retrieves a case by ID
func (r *CaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LegalCase, error) {
	legalCase := &models.LegalCase{}
	query := `
		SELECT id, user_id, number, title, case_type, status, summary, issues, minuta, created_at, updated_at
		FROM cases
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&legalCase.ID,
		&legalCase.UserID,
		&legalCase.Number,
		&legalCase.Title,
		&legalCase.CaseType,
		&legalCase.Status,
		&legalCase.Summary,
		&legalCase.Issues,
		&legalCase.Minuta,
		&legalCase.CreatedAt,
		&legalCase.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}

	return legalCase, nil
}

// ListByUser retrieves all cases for a user, most recent first
func (r *CaseRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.LegalCase, error) {
	query := `
		SELECT id, user_id, number, title, case_type, status, summary, issues, minuta, created_at, updated_at
		FROM cases
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var cases []models.LegalCase
	for rows.Next() {
		var c models.LegalCase
		err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.Number,
			&c.Title,
			&c.CaseType,
			&c.Status,
			&c.Summary,
			&c.Issues,
			&c.Minuta,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cases: %w", err)
	}

	return cases, nil
}

// UpdateAnalysis stores the analysis outcome: metadata, summary, status and the
// freshly materialized issue list in one write.
func (r *CaseRepository) UpdateAnalysis(ctx context.Context, legalCase *models.LegalCase) error {
	query := `
		UPDATE cases
		SET number = $2, title = $3, case_type = $4, status = $5, summary = $6,
		    issues = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(
		ctx, query,
		legalCase.ID,
		legalCase.Number,
		legalCase.Title,
		legalCase.CaseType,
		legalCase.Status,
		legalCase.Summary,
		legalCase.Issues,
	).Scan(&legalCase.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update case analysis: %w", err)
	}

	return nil
}

// UpdateIssues persists the full issue list of a case
func (r *CaseRepository) UpdateIssues(ctx context.Context, id uuid.UUID, issues models.LegalIssues) error {
	query := `
		UPDATE cases
		SET issues = $2, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, issues)
	if err != nil {
		return fmt.Errorf("failed to update case issues: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("case %s not found", id)
	}

	return nil
}

// UpdateMinuta stores the generated draft on the case
func (r *CaseRepository) UpdateMinuta(ctx context.Context, id uuid.UUID, minuta string) error {
	query := `
		UPDATE cases
		SET minuta = $2, status = $3, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, minuta, models.CaseStatusReviewed)
	if err != nil {
		return fmt.Errorf("failed to update case minuta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("case %s not found", id)
	}

	return nil
}

// Delete removes a case and its issue list
func (r *CaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM cases WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("case %s not found", id)
	}

	return nil
}
