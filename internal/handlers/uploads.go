package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/tubeworks/backend/internal/apperr"
)

// AssetStore persists uploaded media and returns its public location.
type AssetStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// UploadHandler accepts media uploads ahead of video creation. The returned
// URL is what callers then submit as videoUrl or thumbnailUrl.
type UploadHandler struct {
	Assets AssetStore
}

const maxUploadBytes = 1 << 30

type uploadTarget struct {
	prefix     string
	extensions map[string]bool
}

var uploadTargets = map[string]uploadTarget{
	"video": {
		prefix:     "videos",
		extensions: map[string]bool{".mp4": true, ".webm": true, ".mov": true},
	},
	"thumbnail": {
		prefix:     "thumbs",
		extensions: map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true},
	},
}

// Upload handles POST /api/v1/uploads. Expects a multipart body with a
// "file" part and an optional "kind" field (video or thumbnail, default
// video). The stored key keeps the original extension under a fresh id.
func (h UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(ctx, w, apperr.Invalid("multipart file field is required"))
		return
	}
	defer file.Close()

	kind := r.FormValue("kind")
	if kind == "" {
		kind = "video"
	}
	target, ok := uploadTargets[kind]
	if !ok {
		respondError(ctx, w, apperr.Invalid("kind must be video or thumbnail"))
		return
	}

	ext := strings.ToLower(path.Ext(header.Filename))
	if !target.extensions[ext] {
		respondError(ctx, w, apperr.Invalid(fmt.Sprintf("unsupported %s extension %q", kind, ext)))
		return
	}

	name := fmt.Sprintf("%s/%s%s", target.prefix, uuid.NewString(), ext)
	url, err := h.Assets.Save(ctx, name, file)
	if err != nil {
		respondError(ctx, w, apperr.Internal("failed to store upload", err))
		return
	}

	respondData(ctx, w, http.StatusCreated, map[string]string{"url": url}, "upload stored")
}
