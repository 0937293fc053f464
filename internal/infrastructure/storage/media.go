package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/michaelwaves/astrosmurf/internal/domain"
	"github.com/michaelwaves/astrosmurf/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// MediaRepository persists generated media rows in Postgres.
type MediaRepository struct {
	db *sql.DB
}

var _ ports.MediaRepository = (*MediaRepository)(nil)

// NewMediaRepository wires the shared connection pool.
func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Insert stores one media row and returns its id.
func (r *MediaRepository) Insert(ctx context.Context, media domain.Media) (int64, error) {
	query := `INSERT INTO media (article_id, prompt, style, media_type, media_url)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		media.ArticleID, media.Prompt, media.Style, media.MediaType, media.MediaURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert media: %w", err)
	}
	return id, nil
}

// GetByID fetches one media row.
func (r *MediaRepository) GetByID(ctx context.Context, id int64) (domain.Media, error) {
	query := `SELECT id, article_id, prompt, style, media_type, media_url, created_at
              FROM media WHERE id = $1`

	var m domain.Media
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.ArticleID, &m.Prompt, &m.Style, &m.MediaType, &m.MediaURL, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Media{}, ErrNotFound
	}
	if err != nil {
		return domain.Media{}, fmt.Errorf("select media: %w", err)
	}
	return m, nil
}

// ByArticle returns all media for one article, newest first.
func (r *MediaRepository) ByArticle(ctx context.Context, articleID int64) ([]domain.Media, error) {
	query := `SELECT id, article_id, prompt, style, media_type, media_url, created_at
              FROM media WHERE article_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("select media by article: %w", err)
	}
	defer rows.Close()

	return scanMedia(rows)
}

// List returns recent media joined with article sources, optionally
// filtered by a free-text search over article text/source and media prompt.
func (r *MediaRepository) List(ctx context.Context, limit int, search string) ([]domain.MediaListing, error) {
	if limit <= 0 {
		limit = 50
	}

	query, args, err := buildListQuery(limit, search)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select media listing: %w", err)
	}
	defer rows.Close()

	var listings []domain.MediaListing
	for rows.Next() {
		var l domain.MediaListing
		if err := rows.Scan(
			&l.ID, &l.ArticleID, &l.Prompt, &l.Style, &l.MediaType, &l.MediaURL, &l.CreatedAt,
			&l.ArticleSource,
		); err != nil {
			return nil, fmt.Errorf("scan media listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return listings, nil
}

func buildListQuery(limit int, search string) (string, []interface{}, error) {
	builder := psql.
		Select(
			"m.id", "m.article_id", "m.prompt", "m.style", "m.media_type", "m.media_url", "m.created_at",
			"a.source",
		).
		From("media m").
		Join("articles a ON a.id = m.article_id").
		OrderBy("m.created_at DESC").
		Limit(uint64(limit))

	if search != "" {
		like := "%" + search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"a.text": like},
			sq.ILike{"a.source": like},
			sq.ILike{"m.prompt": like},
		})
	}

	return builder.ToSql()
}

// Delete removes one media row.
func (r *MediaRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMedia(rows *sql.Rows) ([]domain.Media, error) {
	var items []domain.Media
	for rows.Next() {
		var m domain.Media
		if err := rows.Scan(&m.ID, &m.ArticleID, &m.Prompt, &m.Style, &m.MediaType, &m.MediaURL, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return items, nil
}
