package endpoints

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/confportal/conf-portal-api/pkg/audit"
	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/rbac"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/store"
	"github.com/confportal/conf-portal-api/pkg/storage"
)

// multipartOverhead is allowed on top of the file size limit for the form
// boundaries and other fields.
const multipartOverhead = 1 << 20

type bulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

type bulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// BatchUploadResponse lists the stored files and the names that failed.
type BatchUploadResponse struct {
	Items  []model.File `json:"items"`
	Failed []string     `json:"failed"`
}

// PresignedURL is a temporary download link.
type PresignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type fileHandlers struct {
	rs       responder
	files    store.FileStore
	storage  server.Storage
	audit    *audit.Recorder
	maxBytes int64
}

// RegisterFileEndpoints registers /admin/file
func RegisterFileEndpoints(s *server.Server, admin *mux.Router) {
	h := &fileHandlers{
		rs:       newResponder(s),
		files:    s.FileStore,
		storage:  s.Storage,
		audit:    s.Audit,
		maxBytes: s.Config.MaxUploadBytes(),
	}
	p := s.Perms

	f := admin.PathPrefix("/file").Subrouter()
	f.Handle("/pages", guard(p, rbac.Read(rbac.ContentFile), h.pages)).Methods("GET")
	f.Handle("/upload", guard(p, rbac.Create(rbac.ContentFile), h.upload)).Methods("POST")
	f.Handle("/batch_upload", guard(p, rbac.Create(rbac.ContentFile), h.batchUpload)).Methods("POST")
	f.Handle("/bulk", guard(p, rbac.Delete(rbac.ContentFile), h.bulkDelete)).Methods("DELETE")
	f.Handle("/"+idPattern+"/url", guard(p, rbac.Read(rbac.ContentFile), h.url)).Methods("GET")
}

func (h *fileHandlers) available() error {
	if h.storage == nil {
		return errs.NewServiceUnavailableError("File storage is not configured")
	}
	return nil
}

func (h *fileHandlers) pages(w http.ResponseWriter, r *http.Request) {
	q, err := pageQuery(r)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	for _, f := range []string{"status", "source"} {
		if q, err = withIntFilter(q, r, f, f); err != nil {
			h.rs.error(w, r, err)
			return
		}
	}
	if v := r.URL.Query().Get("content_type"); v != "" {
		if q.Filters == nil {
			q.Filters = map[string]any{}
		}
		q.Filters["content_type"] = v
	}
	page, err := h.files.Pages(r.Context(), q)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

// parseForm limits the body and parses the multipart form.
func (h *fileHandlers) parseForm(w http.ResponseWriter, r *http.Request, files int) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes*int64(files)+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewPayloadTooLargeError("File exceeds the upload size limit")
		}
		return errs.NewBadRequestError("Invalid multipart form", false, nil, nil, nil).WithDebug(err.Error())
	}
	return nil
}

// save uploads one form file and records it.
func (h *fileHandlers) save(r *http.Request, header *multipart.FileHeader, public bool) (*model.File, error) {
	if header.Size > h.maxBytes {
		return nil, errs.NewPayloadTooLargeError("File exceeds the upload size limit")
	}
	body, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer body.Close()

	ext := strings.ToLower(path.Ext(header.Filename))
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if guessed := mime.TypeByExtension(ext); guessed != "" {
			contentType = guessed
		}
	}

	key := h.storage.NewKey(header.Filename)
	obj, err := h.storage.Upload(r.Context(), key, body, contentType)
	if errors.Is(err, storage.ErrTooLarge) {
		return nil, errs.NewPayloadTooLargeError("File exceeds the upload size limit")
	}
	if err != nil {
		return nil, err
	}

	file := &model.File{
		OriginalName:   header.Filename,
		Key:            obj.Key,
		Storage:        storage.Name,
		Bucket:         h.storage.Bucket(),
		Region:         optional(h.storage.Region()),
		ContentType:    optional(contentType),
		Extension:      optional(strings.TrimPrefix(ext, ".")),
		SizeBytes:      obj.Size,
		ChecksumMD5:    optional(obj.ChecksumMD5),
		ChecksumSHA256: optional(obj.ChecksumSHA256),
		Status:         model.FileStatusUploaded,
		Version:        1,
		IsPublic:       public,
		Source:         model.FileSourceAdmin,
	}
	if err := h.files.Create(r.Context(), file); err != nil {
		// the object has no metadata row to find it by
		if derr := h.storage.DeleteMany(r.Context(), []string{obj.Key}); derr != nil {
			h.rs.logger.Warn().Err(derr).Str("key", obj.Key).Msg("failed to remove orphaned upload")
		}
		return nil, err
	}
	h.audit.Record(r.Context(), actor(r), audit.Created(rbac.ContentFile, file.ID, file))
	return file, nil
}

func (h *fileHandlers) upload(w http.ResponseWriter, r *http.Request) {
	if err := h.available(); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := h.parseForm(w, r, 1); err != nil {
		h.rs.error(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		h.rs.error(w, r, errs.NewBadRequestError("Validation failed", true, nil,
			[]errs.FieldError{{Field: "file", Error: "is required"}}, nil))
		return
	}
	file, err := h.save(r, headers[0], queryBool(r, "is_public") || r.FormValue("is_public") == "true")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, file)
}

// batchUpload stores every "files" part. A failed part does not stop the
// others.
func (h *fileHandlers) batchUpload(w http.ResponseWriter, r *http.Request) {
	if err := h.available(); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := h.parseForm(w, r, 10); err != nil {
		h.rs.error(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		h.rs.error(w, r, errs.NewBadRequestError("Validation failed", true, nil,
			[]errs.FieldError{{Field: "files", Error: "is required"}}, nil))
		return
	}
	public := r.FormValue("is_public") == "true"
	resp := BatchUploadResponse{Items: []model.File{}, Failed: []string{}}
	for _, header := range headers {
		file, err := h.save(r, header, public)
		if err != nil {
			if h.rs.logger != nil {
				h.rs.logger.Warn().Err(err).Str("filename", header.Filename).Msg("Batch upload item failed")
			}
			resp.Failed = append(resp.Failed, header.Filename)
			continue
		}
		resp.Items = append(resp.Items, *file)
	}
	status := http.StatusCreated
	if len(resp.Items) == 0 {
		status = http.StatusBadGateway
	}
	respondWithJSON(w, status, resp)
}

func (h *fileHandlers) bulkDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.available(); err != nil {
		h.rs.error(w, r, err)
		return
	}
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	deleted, err := h.files.MarkDeleted(r.Context(), req.IDs)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	keys := make([]string, 0, len(deleted))
	for _, f := range deleted {
		keys = append(keys, f.Key)
		h.audit.Record(r.Context(), actor(r), audit.Deleted(rbac.ContentFile, f.ID, f, true))
	}
	if err := h.storage.DeleteMany(r.Context(), keys); err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, bulkDeleteResponse{Deleted: len(deleted)})
}

func (h *fileHandlers) url(w http.ResponseWriter, r *http.Request) {
	if err := h.available(); err != nil {
		h.rs.error(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	file, err := h.files.Get(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if file.Status == model.FileStatusDeleted {
		h.rs.error(w, r, errs.NewNotFoundError("File not found", false, nil))
		return
	}
	url, expiresAt, err := h.storage.PresignGet(r.Context(), file.Key)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, PresignedURL{URL: url, ExpiresAt: expiresAt})
}
