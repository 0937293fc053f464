package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/michaelwaves/astrosmurf/internal/domain"
	"github.com/michaelwaves/astrosmurf/internal/ports"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ArticleRepository persists pipeline source records in Postgres.
type ArticleRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository wires the shared connection pool.
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Create inserts a new article and returns its id. Every pipeline run
// creates a fresh row; there is no dedup by source.
func (r *ArticleRepository) Create(ctx context.Context, source, text string, userID *int64) (int64, error) {
	query := `INSERT INTO articles (source, text, user_id)
              VALUES ($1, $2, $3)
              RETURNING id`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, source, text, userID).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}
	return id, nil
}

// GetByID fetches one article.
func (r *ArticleRepository) GetByID(ctx context.Context, id int64) (domain.Article, error) {
	query := `SELECT id, source, text, user_id, created_at FROM articles WHERE id = $1`

	var (
		article domain.Article
		userID  sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&article.ID, &article.Source, &article.Text, &userID, &article.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("select article: %w", err)
	}
	if userID.Valid {
		article.UserID = &userID.Int64
	}
	return article, nil
}

// Recent returns the newest articles, most recent first.
func (r *ArticleRepository) Recent(ctx context.Context, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT id, source, text, user_id, created_at
              FROM articles ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var (
			article domain.Article
			userID  sql.NullInt64
		)
		if err := rows.Scan(&article.ID, &article.Source, &article.Text, &userID, &article.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if userID.Valid {
			article.UserID = &userID.Int64
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}

// Delete removes an article; its media rows cascade at the schema level.
func (r *ArticleRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
