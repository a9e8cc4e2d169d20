package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dtroode/session-server/internal/storage/memory"
)

// MediaSource exposes objects held by the in-memory media store.
type MediaSource interface {
	Get(key string) (memory.Object, bool)
}

// Media serves uploaded files when media lives in process memory.
type Media struct {
	source MediaSource
}

func NewMedia(source MediaSource) *Media {
	return &Media{source: source}
}

func (h *Media) Get(w http.ResponseWriter, r *http.Request) {
	obj, ok := h.source.Get(chi.URLParam(r, "*"))
	if !ok {
		WriteErrorCode(w, http.StatusNotFound, CodeNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(obj.Data)
}
