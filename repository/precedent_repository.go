package repository

import (
	"context"
	"fmt"
	"strings"

	"uaijus-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EmbeddingDimensions is fixed by the embedding model (text-embedding-004)
const EmbeddingDimensions = 768

// PrecedentRepository handles database operations for the jurisprudence vector base
type PrecedentRepository struct {
	db *pgxpool.Pool
}

// NewPrecedentRepository creates a new precedent repository
func NewPrecedentRepository(db *pgxpool.Pool) *PrecedentRepository {
	return &PrecedentRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// SearchNearest performs a cosine similarity search over the jurisprudence base.
// Rows scoring below threshold are excluded by the query itself; results come
// back ordered by descending similarity, at most limit rows. Tie order between
// equal scores is whatever Postgres produces.
func (r *PrecedentRepository) SearchNearest(
	ctx context.Context,
	embedding []float64,
	threshold float64,
	limit int,
) ([]models.Precedent, error) {
	if len(embedding) != EmbeddingDimensions {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDimensions, len(embedding))
	}

	vectorStr := formatVector(embedding)

	query := `
		SELECT
			id,
			numero_acordao,
			ementa,
			decisao,
			relator,
			1 - (embedding_ementa <=> $1::vector) AS similarity
		FROM jurisprudencia
		WHERE 1 - (embedding_ementa <=> $1::vector) >= $2
		ORDER BY embedding_ementa <=> $1::vector
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, vectorStr, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query jurisprudencia: %w", err)
	}
	defer rows.Close()

	var precedents []models.Precedent
	for rows.Next() {
		var p models.Precedent
		err := rows.Scan(
			&p.ID,
			&p.NumeroAcordao,
			&p.Ementa,
			&p.Decisao,
			&p.Relator,
			&p.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan precedent: %w", err)
		}
		precedents = append(precedents, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating precedents: %w", err)
	}

	return precedents, nil
}

// Upsert inserts or replaces a precedent keyed by numero_acordao.
// Used by the seeding command; the retrieval path never writes.
func (r *PrecedentRepository) Upsert(
	ctx context.Context,
	precedent *models.Precedent,
	embedding []float64,
) error {
	if len(embedding) != EmbeddingDimensions {
		return fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDimensions, len(embedding))
	}

	query := `
		INSERT INTO jurisprudencia (numero_acordao, ementa, decisao, relator, embedding_ementa)
		VALUES ($1, $2, $3, $4, $5::vector)
		ON CONFLICT (numero_acordao) DO UPDATE SET
			ementa = EXCLUDED.ementa,
			decisao = EXCLUDED.decisao,
			relator = EXCLUDED.relator,
			embedding_ementa = EXCLUDED.embedding_ementa
		RETURNING id`

	err := r.db.QueryRow(
		ctx, query,
		precedent.NumeroAcordao,
		precedent.Ementa,
		precedent.Decisao,
		precedent.Relator,
		formatVector(embedding),
	).Scan(&precedent.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert precedent %s: %w", precedent.NumeroAcordao, err)
	}

	return nil
}
