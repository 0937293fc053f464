package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/michaelwaves/astrosmurf/internal/domain"
	"github.com/michaelwaves/astrosmurf/internal/ports"
)

// PersonaRepository looks up stored reference images for edit-conditioned
// generation.
type PersonaRepository struct {
	db *sql.DB
}

var _ ports.PersonaRepository = (*PersonaRepository)(nil)

// NewPersonaRepository wires the shared connection pool.
func NewPersonaRepository(db *sql.DB) *PersonaRepository {
	return &PersonaRepository{db: db}
}

// GetByID fetches one persona.
func (r *PersonaRepository) GetByID(ctx context.Context, id int64) (domain.Persona, error) {
	query := `SELECT id, user_id, name, image_url, created_at FROM personas WHERE id = $1`

	var (
		p      domain.Persona
		userID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &userID, &p.Name, &p.ImageURL, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Persona{}, ErrNotFound
	}
	if err != nil {
		return domain.Persona{}, fmt.Errorf("select persona: %w", err)
	}
	if userID.Valid {
		p.UserID = &userID.Int64
	}
	return p, nil
}
