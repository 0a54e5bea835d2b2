package models

import (
	"github.com/google/uuid"
)

// Precedent represents a stored jurisprudence record (acórdão) in the vector base
type Precedent struct {
	ID            uuid.UUID `json:"id"`
	NumeroAcordao string    `json:"numero_acordao"`
	Ementa        string    `json:"ementa"`
	Decisao       string    `json:"decisao"`
	Relator       string    `json:"relator"`
	Similarity    float64   `json:"similarity,omitempty"` // Cosine similarity to the query vector
}

// JurisprudenceItem is a retrieval result attached to a legal issue.
// Display text is pre-formatted as "[numero_acordao] ementa".
type JurisprudenceItem struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}
