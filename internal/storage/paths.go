package storage

import "fmt"

// Persisted object layout. These paths are format-significant: the browser
// dashboard reads the same objects directly.
const (
	// IndexPath holds the single pretty-printed dashboard index.
	IndexPath = "data/index.json"

	// ContentTypeJSON and ContentTypeCSV are the content types written
	// alongside each object.
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"
)

// SourcePath is where the verbatim bytes of an uploaded export live.
func SourcePath(sessionID string) string {
	return fmt.Sprintf("data/sources/%s.csv", sessionID)
}

// SessionPath is where one immutable session revision lives.
func SessionPath(sessionID string, revision int) string {
	return fmt.Sprintf("data/sessions/%s/%d.json", sessionID, revision)
}
