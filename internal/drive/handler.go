package drive

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// SyncHook runs after a successful sync, typically reloading the dataset.
type SyncHook func(ctx context.Context, paths []string) (any, error)

type Handler struct {
	files         FileStore
	downloader    *Downloader
	defaultFolder string
	downloadDir   string
	afterSync     SyncHook
}

func NewHandler(files FileStore, defaultFolder, downloadDir string, afterSync SyncHook) *Handler {
	return &Handler{
		files:         files,
		downloader:    NewDownloader(files),
		defaultFolder: defaultFolder,
		downloadDir:   downloadDir,
		afterSync:     afterSync,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/drive/sync", h.Sync).Methods("POST")
}

func (h *Handler) resolveFolder(r *http.Request) (string, error) {
	query := r.URL.Query()
	if path := query.Get("path"); path != "" {
		return h.files.FindFolderByPath(r.Context(), path)
	}
	if id := query.Get("folderId"); id != "" {
		return id, nil
	}
	return h.defaultFolder, nil
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	folderID, err := h.resolveFolder(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	files, err := h.files.ListFiles(r.Context(), folderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if files == nil {
		files = []*File{}
	}

	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	folderID, err := h.resolveFolder(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	paths, err := h.downloader.DownloadFolder(r.Context(), DownloadOptions{
		FolderID:    folderID,
		DownloadDir: h.downloadDir,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	resp := map[string]any{"status": "success", "files": paths}
	if h.afterSync != nil {
		result, err := h.afterSync(r.Context(), paths)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		resp["result"] = result
	}

	log.Info().Str("folder", folderID).Int("files", len(paths)).Msg("Drive sync completed")
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
