package drafts

import (
	"net/url"
	"path/filepath"
)

// DraftPath builds the file path for a key. Keys are query-escaped so ':' and
// '/' never reach the filesystem.
func DraftPath(basePath, key string) string {
	return filepath.Join(basePath, "drafts", url.QueryEscape(key)+".json")
}

func manifestPath(basePath string) string {
	return filepath.Join(basePath, "manifest.json")
}
