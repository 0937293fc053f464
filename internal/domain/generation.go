package domain

// MediaItem is one media object returned by the synthesis backend.
type MediaItem struct {
	URL         string
	Width       int
	Height      int
	ContentType string
}

// SynthesisResult is the terminal payload of one generation request.
type SynthesisResult struct {
	Items []MediaItem
}

// MediaEntry correlates one persisted media row back to its concept.
type MediaEntry struct {
	MediaID  int64
	MediaURL string
	Concept  string
}

// RunResult summarizes a pipeline run: only entries that survived prompt
// filtering, generation, and persistence appear here.
type RunResult struct {
	ArticleID  int64
	MediaCount int
	Entries    []MediaEntry
}
