package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/engine"
	"rbx-extract/internal/logging"
	"rbx-extract/internal/metrics"
	"rbx-extract/internal/preview"
	"rbx-extract/internal/source"

	"github.com/gorilla/mux"
)

// StatusResponse is the state a display polls.
type StatusResponse struct {
	Status   string        `json:"status"`
	Progress float64       `json:"progress"`
	Repaint  bool          `json:"repaint"`
	Stats    metrics.Stats `json:"stats"`
}

// AssetListResponse is one page of the index or the filtered view.
type AssetListResponse struct {
	Query  string                 `json:"query,omitempty"`
	Total  int                    `json:"total"`
	Assets []assettypes.AssetInfo `json:"assets"`
}

// ExtractRequest asks for a category to be written to a directory.
type ExtractRequest struct {
	Dest     string              `json:"dest"`
	Category assettypes.Category `json:"category"`
	UseAlias bool                `json:"useAlias"`
}

// AssetRef names an asset by id and category.
type AssetRef struct {
	ID       string              `json:"id"`
	Category assettypes.Category `json:"category"`
}

// PairRequest names the two assets of a swap or copy.
type PairRequest struct {
	A AssetRef `json:"a"`
	B AssetRef `json:"b"`
}

// AliasRequest sets or removes (empty Alias) the alias of an asset.
type AliasRequest struct {
	Alias string `json:"alias"`
}

// GetStatus returns the status message, progress and engine counters. It
// also consumes the repaint flag.
func (h *Handlers) GetStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, StatusResponse{
		Status:   h.engine.Status(),
		Progress: h.engine.Progress(),
		Repaint:  h.engine.TakeRepaint(),
		Stats:    h.engine.GetStats(),
	})
}

// ListAssets returns the index, or the filtered view when ?q= is given.
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var assets []assettypes.AssetInfo
	if query != "" {
		assets = h.engine.FilterFileList(query)
	} else {
		assets = h.engine.Index()
	}
	if assets == nil {
		assets = []assettypes.AssetInfo{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, AssetListResponse{Query: query, Total: len(assets), Assets: assets})
}

// RefreshAssets starts a listing pass for ?category= (default all).
func (h *Handlers) RefreshAssets(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(w, r)
	if !ok {
		return
	}
	h.engine.Refresh(category)
	writeJSONStatus(w, "refreshing", http.StatusAccepted)
}

// ExtractCategory writes one category to a directory in the background.
func (h *Handlers) ExtractCategory(w http.ResponseWriter, r *http.Request) {
	req := ExtractRequest{Category: assettypes.CategoryAll}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Dest == "" {
		writeJSONError(w, "dest is required", http.StatusBadRequest)
		return
	}
	h.respondTask(w, h.engine.ExtractDir(req.Dest, req.Category, req.UseAlias), "extracting")
}

// ExtractAll writes music and then every other asset to a directory.
func (h *Handlers) ExtractAll(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Dest == "" {
		writeJSONError(w, "dest is required", http.StatusBadRequest)
		return
	}
	h.respondTask(w, h.engine.ExtractAll(req.Dest, req.UseAlias), "extracting")
}

// ClearCache empties every source in the background.
func (h *Handlers) ClearCache(w http.ResponseWriter, _ *http.Request) {
	h.respondTask(w, h.engine.ClearCache(), "clearing")
}

// SwapAssets exchanges the content of two assets.
func (h *Handlers) SwapAssets(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "swapped", h.engine.SwapAssets)
}

// CopyAssets replaces the content of b with that of a.
func (h *Handlers) CopyAssets(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "copied", h.engine.CopyAssets)
}

// GetAsset serves the payload of an asset with the MIME type of its
// detected signature.
func (h *Handlers) GetAsset(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.lookup(w, r)
	if !ok {
		return
	}

	data, ext, err := h.engine.ExtractAsset(r.Context(), asset)
	if err != nil {
		writeSourceError(w, asset, err)
		return
	}

	w.Header().Set("Content-Type", assettypes.GetMimeType(ext))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", `inline; filename="`+asset.Name+"."+ext+`"`)
	if asset.HasLastModified() {
		w.Header().Set("Last-Modified", asset.LastModified.UTC().Format(http.TimeFormat))
	}
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write asset %s: %v", asset.Name, err)
	}
}

// GetPreview serves a JPEG thumbnail of an image asset. ?size= bounds the
// longest edge.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.lookup(w, r)
	if !ok {
		return
	}

	size := preview.DefaultSize
	if s, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && s > 0 && s <= 2048 {
		size = s
	}

	data, err := h.engine.ExtractAssetToBytes(r.Context(), asset)
	if err != nil {
		writeSourceError(w, asset, err)
		return
	}

	thumb, err := h.previews.Thumbnail(data, size)
	if err != nil {
		if errors.Is(err, preview.ErrUnsupported) {
			writeJSONError(w, "No preview for this asset", http.StatusUnsupportedMediaType)
			return
		}
		logging.Error("Preview of %s failed: %v", asset.Name, err)
		writeJSONError(w, "Failed to render preview", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(thumb); err != nil {
		logging.Debug("Failed to write preview of %s: %v", asset.Name, err)
	}
}

// SetAlias stores the display alias of an asset name.
func (h *Handlers) SetAlias(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req AliasRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.settings.SetAlias(name, req.Alias); err != nil {
		logging.Error("Failed to save alias for %s: %v", name, err)
		writeJSONError(w, "Failed to save alias", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, "ok", http.StatusOK)
}

// ListAliases returns every stored alias.
func (h *Handlers) ListAliases(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.settings.Aliases())
}

func (h *Handlers) pair(w http.ResponseWriter, r *http.Request, done string, fn func(ctx context.Context, a, b assettypes.AssetInfo) error) {
	var req PairRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.A.ID == "" || req.B.ID == "" {
		writeJSONError(w, "both asset ids are required", http.StatusBadRequest)
		return
	}

	a := h.engine.CreateAssetInfo(r.Context(), req.A.ID, req.A.Category)
	b := h.engine.CreateAssetInfo(r.Context(), req.B.ID, req.B.Category)
	if err := fn(r.Context(), a, b); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSONStatus(w, done, http.StatusOK)
}

// lookup resolves {id} and ?category= to a descriptor, answering 404 when no
// source holds it.
func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (assettypes.AssetInfo, bool) {
	category, ok := categoryParam(w, r)
	if !ok {
		return assettypes.AssetInfo{}, false
	}
	asset := h.engine.CreateAssetInfo(r.Context(), mux.Vars(r)["id"], category)
	if asset.IsPlaceholder() {
		writeJSONError(w, "Asset not found", http.StatusNotFound)
		return asset, false
	}
	return asset, true
}

func (h *Handlers) respondTask(w http.ResponseWriter, task *engine.Task, status string) {
	select {
	case <-task.Done():
		if errors.Is(task.Err(), engine.ErrBusy) {
			writeJSONError(w, "Another task is running", http.StatusConflict)
			return
		}
	default:
	}
	writeJSONStatus(w, status, http.StatusAccepted)
}

func categoryParam(w http.ResponseWriter, r *http.Request) (assettypes.Category, bool) {
	name := r.URL.Query().Get("category")
	if name == "" {
		return assettypes.CategoryAll, true
	}
	category, err := assettypes.ParseCategory(name)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return category, false
	}
	return category, true
}

func writeSourceError(w http.ResponseWriter, asset assettypes.AssetInfo, err error) {
	switch {
	case errors.Is(err, source.ErrNotFound):
		writeJSONError(w, "Asset not found", http.StatusNotFound)
	case errors.Is(err, source.ErrNoConnection):
		writeJSONError(w, "Source unavailable", http.StatusServiceUnavailable)
	default:
		logging.Error("Reading %s failed: %v", asset.Name, err)
		writeJSONError(w, "Failed to read asset", http.StatusInternalServerError)
	}
}
