package storage

import (
	"strings"
	"testing"
)

func TestBuildListQueryWithoutSearch(t *testing.T) {
	t.Parallel()

	query, args, err := buildListQuery(25, "")
	if err != nil {
		t.Fatalf("buildListQuery error: %v", err)
	}
	if strings.Contains(query, "ILIKE") {
		t.Fatalf("no search term must mean no filter: %s", query)
	}
	if !strings.Contains(query, "JOIN articles a ON a.id = m.article_id") {
		t.Fatalf("article join missing: %s", query)
	}
	if !strings.Contains(query, "ORDER BY m.created_at DESC") {
		t.Fatalf("ordering missing: %s", query)
	}
	if !strings.Contains(query, "LIMIT 25") {
		t.Fatalf("limit missing: %s", query)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
}

func TestBuildListQueryWithSearch(t *testing.T) {
	t.Parallel()

	query, args, err := buildListQuery(10, "space dogs")
	if err != nil {
		t.Fatalf("buildListQuery error: %v", err)
	}

	for _, column := range []string{"a.text ILIKE", "a.source ILIKE", "m.prompt ILIKE"} {
		if !strings.Contains(query, column) {
			t.Errorf("filter on %q missing: %s", column, query)
		}
	}
	if !strings.Contains(query, "$1") || !strings.Contains(query, "$3") {
		t.Fatalf("expected dollar placeholders: %s", query)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %v", args)
	}
	for _, arg := range args {
		if arg != "%space dogs%" {
			t.Fatalf("search term not wrapped for partial match: %v", args)
		}
	}
}
