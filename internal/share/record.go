package share

import (
	"net/url"
	"time"
)

// Record is what gets stored next to a shared image. Text values are
// path-escaped because S3 user metadata must be ASCII.
type Record struct {
	ID            string
	Prompt        string
	RevisedPrompt string
	Size          string
	Quality       string
	Style         string
	Created       time.Time
}

func (r Record) Metadata() map[string]string {
	return map[string]string{
		"id":             r.ID,
		"prompt":         url.PathEscape(r.Prompt),
		"revised-prompt": url.PathEscape(r.RevisedPrompt),
		"size":           r.Size,
		"quality":        r.Quality,
		"style":          r.Style,
		"created":        r.Created.UTC().Format(time.RFC3339),
	}
}

func RecordFromMetadata(meta map[string]string) Record {
	unescape := func(s string) string {
		if v, err := url.PathUnescape(s); err == nil {
			return v
		}
		return s
	}
	created, _ := time.Parse(time.RFC3339, meta["created"])
	return Record{
		ID:            meta["id"],
		Prompt:        unescape(meta["prompt"]),
		RevisedPrompt: unescape(meta["revised-prompt"]),
		Size:          meta["size"],
		Quality:       meta["quality"],
		Style:         meta["style"],
		Created:       created,
	}
}
