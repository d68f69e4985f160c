package shared

import "fmt"

// DraftLockKey builds redis keys guarding submission of one draft.
func DraftLockKey(kind, draftID string) string {
	return fmt.Sprintf("kanak:draft:%s:%s:submit", kind, draftID)
}

// DraftKey builds the redis key a draft is stored under.
func DraftKey(kind, draftID string) string {
	return fmt.Sprintf("kanak:draft:%s:%s", kind, draftID)
}

// CatalogRefreshLockKey guards concurrent catalog refresh runs.
func CatalogRefreshLockKey() string {
	return "kanak:catalog:refresh:lock"
}
