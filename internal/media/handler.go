package media

import (
	"context"
	"errors"
	"net/http"

	"github.com/kdblegal/kdbweb/internal/telemetry/metrics"
	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type mediaStorage interface {
	PresignUpload(ctx context.Context, req UploadRequest) (*Upload, error)
	List(ctx context.Context, prefix *string, limit int, continuation string) (*Listing, error)
	Rename(ctx context.Context, key, newName string) (string, error)
	CreateFolder(ctx context.Context, name string, prefix *string) (string, error)
	DeleteFolder(ctx context.Context, prefix string) (int, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

var _ mediaStorage = (*Storage)(nil)

type Handler struct {
	storage mediaStorage
	metrics *metrics.Manager
}

// NewHandler builds the media handler. A nil storage means no bucket is
// configured, every route then answers 400.
func NewHandler(storage mediaStorage, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		storage: storage,
		metrics: metricsManager,
	}
}

type keyRequest struct {
	Key string `json:"key"`
}

type renameRequest struct {
	Key     string `json:"key"`
	NewName string `json:"new_name"`
}

type renameResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type folderRequest struct {
	FolderName string  `json:"folder_name"`
	Prefix     *string `json:"prefix"`
}

type folderDeleteRequest struct {
	Prefix string `json:"prefix"`
}

type folderResponse struct {
	Prefix string `json:"prefix"`
}

type folderDeleteResponse struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

func (h *Handler) SetupRoutes(router *mux.Router, adminOnly mux.MiddlewareFunc) {
	media := router.PathPrefix("/api/media").Subrouter()
	media.Use(adminOnly, h.requireStorage)
	media.HandleFunc("", h.HandleList).Methods("GET", "OPTIONS").Name("media-list")
	media.HandleFunc("/presign", h.HandlePresign).Methods("POST", "OPTIONS").Name("media-presign")
	media.HandleFunc("/delete", h.HandleDelete).Methods("POST", "OPTIONS").Name("media-delete")
	media.HandleFunc("/rename", h.HandleRename).Methods("POST", "OPTIONS").Name("media-rename")
	media.HandleFunc("/folder", h.HandleCreateFolder).Methods("POST", "OPTIONS").Name("media-folder-create")
	media.HandleFunc("/folder/delete", h.HandleDeleteFolder).Methods("POST", "OPTIONS").Name("media-folder-delete")
}

func (h *Handler) requireStorage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.storage == nil {
			pkg.WriteError(w, http.StatusBadRequest, "storage not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.media.list")
	defer span.End()

	var prefix *string
	if values, ok := r.URL.Query()["prefix"]; ok && len(values) > 0 {
		prefix = &values[0]
	}
	limit := pkg.QueryInt(r, "limit", DefaultListLimit, 1, MaxListLimit)

	listing, err := h.storage.List(ctx, prefix, limit, r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, "list media", err)
		return
	}
	pkg.WriteJSONOK(w, listing)
}

func (h *Handler) HandlePresign(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.media.presign")
	defer span.End()

	var req UploadRequest
	if err := pkg.DecodeJSONBody(r, &req); err != nil {
		writeError(w, "presign upload", err)
		return
	}

	upload, err := h.storage.PresignUpload(ctx, req)
	if err != nil {
		writeError(w, "presign upload", err)
		return
	}

	h.metrics.CounterMediaUploadsSigned.Inc()
	log.Debugf("presigned upload for %s", upload.Key)
	pkg.WriteJSONOK(w, upload)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.media.delete")
	defer span.End()

	var req keyRequest
	if err := pkg.DecodeJSONBody(r, &req); err != nil {
		writeError(w, "delete media", err)
		return
	}

	if err := h.storage.Delete(ctx, req.Key); err != nil {
		writeError(w, "delete media", err)
		return
	}

	log.Printf("media object deleted: %s", req.Key)
	pkg.WriteMessage(w, http.StatusOK, "deleted")
}

func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.media.rename")
	defer span.End()

	var req renameRequest
	if err := pkg.DecodeJSONBody(r, &req); err != nil {
		writeError(w, "rename media", err)
		return
	}

	newKey, err := h.storage.Rename(ctx, req.Key, req.NewName)
	if err != nil {
		writeError(w, "rename media", err)
		return
	}

	log.Printf("media object renamed: %s -> %s", req.Key, newKey)
	pkg.WriteJSONOK(w, renameResponse{Key: newKey, URL: h.storage.PublicURL(newKey)})
}

func (h *Handler) HandleCreateFolder(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.media.create_folder")
	defer span.End()

	var req folderRequest
	if err := pkg.DecodeJSONBody(r, &req); err != nil {
		writeError(w, "create folder", err)
		return
	}

	key, err := h.storage.CreateFolder(ctx, req.FolderName, req.Prefix)
	if err != nil {
		writeError(w, "create folder", err)
		return
	}
	pkg.WriteJSONOK(w, folderResponse{Prefix: key})
}

func (h *Handler) HandleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.media.delete_folder")
	defer span.End()

	var req folderDeleteRequest
	if err := pkg.DecodeJSONBody(r, &req); err != nil {
		writeError(w, "delete folder", err)
		return
	}

	deleted, err := h.storage.DeleteFolder(ctx, req.Prefix)
	if err != nil {
		writeError(w, "delete folder", err)
		return
	}

	log.Printf("media folder %s deleted, %d objects", req.Prefix, deleted)
	pkg.WriteJSONOK(w, folderDeleteResponse{Message: "folder deleted", Deleted: deleted})
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case pkg.IsValidationError(err):
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPrefixNotAllowed), errors.Is(err, ErrKeyNotAllowed):
		pkg.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyExists):
		pkg.WriteError(w, http.StatusConflict, "an object with that name already exists")
	default:
		log.Errorf("media handler, %s: %s", op, err)
		pkg.WriteError(w, http.StatusInternalServerError, "storage operation failed")
	}
}
