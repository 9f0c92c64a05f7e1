package engine

import (
	"strings"

	"rbx-extract/internal/assettypes"
)

// FilterFileList replaces the filtered index with the indexed assets whose
// name or alias contains query, ignoring case, and returns it.
func (e *Engine) FilterFileList(query string) []assettypes.AssetInfo {
	q := strings.ToLower(query)

	var matched []assettypes.AssetInfo
	for _, a := range e.Index() {
		if strings.Contains(strings.ToLower(a.Name), q) ||
			strings.Contains(strings.ToLower(e.settings.Alias(a.Name)), q) {
			matched = append(matched, a)
		}
	}

	e.filterMu.Lock()
	e.filtered = matched
	e.filterMu.Unlock()
	e.repaint.Store(true)

	return append([]assettypes.AssetInfo(nil), matched...)
}
