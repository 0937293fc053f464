package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/michaelwaves/astrosmurf/internal/domain"
	"github.com/michaelwaves/astrosmurf/internal/infrastructure/storage"
	"github.com/michaelwaves/astrosmurf/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	result *domain.RunResult
	err    error
	last   usecase.Request
}

func (f *fakeRunner) Run(_ context.Context, req usecase.Request) (*domain.RunResult, error) {
	f.last = req
	return f.result, f.err
}

type fakeArticles struct {
	article   domain.Article
	articles  []domain.Article
	getErr    error
	deleteErr error
	deleted   []int64
}

func (f *fakeArticles) Create(context.Context, string, string, *int64) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeArticles) GetByID(context.Context, int64) (domain.Article, error) {
	return f.article, f.getErr
}

func (f *fakeArticles) Recent(context.Context, int) ([]domain.Article, error) {
	return f.articles, nil
}

func (f *fakeArticles) Delete(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeMedia struct {
	media     domain.Media
	listings  []domain.MediaListing
	byArticle []domain.Media
	getErr    error
	listErr   error
	deleteErr error
	deleted   []int64
	lastLimit int
	lastQuery string
}

func (f *fakeMedia) Insert(context.Context, domain.Media) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeMedia) GetByID(context.Context, int64) (domain.Media, error) {
	return f.media, f.getErr
}

func (f *fakeMedia) ByArticle(context.Context, int64) ([]domain.Media, error) {
	return f.byArticle, nil
}

func (f *fakeMedia) List(_ context.Context, limit int, search string) ([]domain.MediaListing, error) {
	f.lastLimit = limit
	f.lastQuery = search
	return f.listings, f.listErr
}

func (f *fakeMedia) Delete(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePublisher struct {
	postID string
	err    error
	urls   []string
	texts  []string
}

func (f *fakePublisher) PublishMedia(_ context.Context, mediaURL, text string) (string, error) {
	f.urls = append(f.urls, mediaURL)
	f.texts = append(f.texts, text)
	return f.postID, f.err
}

type env struct {
	runner    *fakeRunner
	articles  *fakeArticles
	media     *fakeMedia
	publisher *fakePublisher
	router    *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		runner:    &fakeRunner{},
		articles:  &fakeArticles{},
		media:     &fakeMedia{},
		publisher: &fakePublisher{},
	}
	h := NewHandler(e.runner, e.articles, e.media, e.publisher, nil)
	e.router = NewRouter(h)
	return e
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestGenerateSuccessEnvelope(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.runner.result = &domain.RunResult{
		ArticleID:  42,
		MediaCount: 2,
		Entries: []domain.MediaEntry{
			{MediaID: 1, MediaURL: "https://cdn/1.png", Concept: "Dogs in space"},
			{MediaID: 2, MediaURL: "https://cdn/2.png", Concept: "Cats on Mars"},
		},
	}

	rec := e.do(t, http.MethodPost, "/generate", gin.H{"link": "https://example.com", "style": "meme"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["success"] != true {
		t.Fatalf("success flag missing: %v", body)
	}
	if body["article_id"].(float64) != 42 || body["media_count"].(float64) != 2 {
		t.Fatalf("unexpected body %v", body)
	}
	entries := body["media_entries"].([]any)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := entries[0].(map[string]any)
	if first["concept"] != "Dogs in space" || first["media_url"] != "https://cdn/1.png" {
		t.Fatalf("entry shape wrong: %v", first)
	}

	if e.runner.last.Source != "https://example.com" || e.runner.last.Style != "meme" {
		t.Fatalf("request not forwarded: %+v", e.runner.last)
	}
}

func TestGenerateAbortIsGraceful(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.runner.err = usecase.ErrNoConcepts

	rec := e.do(t, http.MethodPost, "/generate", gin.H{"text": "body", "style": "meme"})
	if rec.Code != http.StatusOK {
		t.Fatalf("empty-result aborts answer 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != false {
		t.Fatalf("abort must report success=false: %v", body)
	}
	if body["error"] == "" {
		t.Fatalf("abort must carry an error message: %v", body)
	}
}

func TestGenerateUnexpectedFailureIs500(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.runner.err = errors.New("database down")

	rec := e.do(t, http.MethodPost, "/generate", gin.H{"text": "body", "style": "meme"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode(t, rec); body["success"] != false {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestGenerateRequiresStyle(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/generate", gin.H{"link": "https://example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing style must be a 400, got %d", rec.Code)
	}
}

func TestListMediaPassesLimitAndSearch(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.media.listings = []domain.MediaListing{
		{Media: domain.Media{ID: 1, ArticleID: 2, MediaURL: "https://cdn/1.png"}, ArticleSource: "https://example.com"},
	}

	rec := e.do(t, http.MethodGet, "/media?limit=5&search=space", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if e.media.lastLimit != 5 || e.media.lastQuery != "space" {
		t.Fatalf("query params not forwarded: limit=%d search=%q", e.media.lastLimit, e.media.lastQuery)
	}
	body := decode(t, rec)
	items := body["media"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0].(map[string]any)
	if item["article_source"] != "https://example.com" {
		t.Fatalf("listing must include the article source: %v", item)
	}
}

func TestListMediaDefaultLimit(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	if rec := e.do(t, http.MethodGet, "/media", nil); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if e.media.lastLimit != 50 {
		t.Fatalf("default limit should be 50, got %d", e.media.lastLimit)
	}
}

func TestDeleteMedia(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	rec := e.do(t, http.MethodDelete, "/media/7", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(e.media.deleted) != 1 || e.media.deleted[0] != 7 {
		t.Fatalf("delete not forwarded: %v", e.media.deleted)
	}
}

func TestDeleteMediaNotFound(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.media.deleteErr = storage.ErrNotFound
	if rec := e.do(t, http.MethodDelete, "/media/7", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDeleteMediaBadID(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	if rec := e.do(t, http.MethodDelete, "/media/abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDeleteArticle(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	rec := e.do(t, http.MethodDelete, "/article/9", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(e.articles.deleted) != 1 || e.articles.deleted[0] != 9 {
		t.Fatalf("delete not forwarded: %v", e.articles.deleted)
	}
}

func TestGetArticleWithMedia(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.articles.article = domain.Article{ID: 3, Source: "https://example.com", Text: "a\nb"}
	e.media.byArticle = []domain.Media{{ID: 1, ArticleID: 3}}

	rec := e.do(t, http.MethodGet, "/articles/3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	article := body["article"].(map[string]any)
	if article["source"] != "https://example.com" {
		t.Fatalf("unexpected article %v", article)
	}
	if len(body["media"].([]any)) != 1 {
		t.Fatalf("expected joined media rows: %v", body)
	}
}

func TestGetArticleNotFound(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.articles.getErr = storage.ErrNotFound
	if rec := e.do(t, http.MethodGet, "/articles/404", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestXPost(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.media.media = domain.Media{ID: 5, MediaURL: "https://cdn/5.png"}
	e.publisher.postID = "19123"

	rec := e.do(t, http.MethodPost, "/x_post", gin.H{"media_id": 5, "text": "check this out"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["post_id"] != "19123" {
		t.Fatalf("post id missing: %v", body)
	}
	if e.publisher.urls[0] != "https://cdn/5.png" || e.publisher.texts[0] != "check this out" {
		t.Fatalf("publish args wrong: %v %v", e.publisher.urls, e.publisher.texts)
	}
}

func TestXPostMissingMedia(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.media.getErr = storage.ErrNotFound
	if rec := e.do(t, http.MethodPost, "/x_post", gin.H{"media_id": 5}); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestXPostUnconfigured(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeRunner{}, &fakeArticles{}, &fakeMedia{}, nil, nil)
	router := NewRouter(h)

	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(gin.H{"media_id": 1})
	req := httptest.NewRequest(http.MethodPost, "/x_post", &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	if rec := e.do(t, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
