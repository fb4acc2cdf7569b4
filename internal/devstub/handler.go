package devstub

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsonv2 "encoding/json/v2"

	"encoding/json/jsontext"

	"agencyctl/internal/core/domain"
	"agencyctl/internal/core/registry"
	"agencyctl/internal/core/service/resource"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/uuid/v5"
)

const (
	MaxRequestSize = 8 * 1024 * 1024 // 8MB: forms may carry an image
	MaxUploadSize  = 5 * 1024 * 1024
)

// Credentials is the single admin account the stub accepts.
type Credentials struct {
	Email    string
	Password string
}

// Handler serves the subset of the CMS API the admin client consumes:
// per-resource CRUD, bearer-token auth and image upload. GETs are public
// (the marketing site reads them); writes require a token.
type Handler struct {
	repo      *Repository
	reg       *registry.Registry
	creds     Credentials
	uploadDir string

	mu     sync.Mutex
	tokens map[string]bool
}

func NewHandler(repo *Repository, reg *registry.Registry, creds Credentials, uploadDir string) *Handler {
	if creds.Email == "" {
		creds = Credentials{Email: "admin@agency.test", Password: "admin123"}
	}
	return &Handler{
		repo:      repo,
		reg:       reg,
		creds:     creds,
		uploadDir: uploadDir,
		tokens:    make(map[string]bool),
	}
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var httpStatusCode int
	switch {
	case errors.Is(err, resource.ErrRecordNotFound):
		httpStatusCode = http.StatusNotFound

	case errors.Is(err, resource.ErrInvalidRecord), errors.Is(err, resource.ErrNoDataProvided), errors.Is(err, resource.ErrEmptyRecordID):
		httpStatusCode = http.StatusBadRequest

	default:
		log.Printf("ERROR: Unhandled error from repository: %v", err)
		httpStatusCode = http.StatusInternalServerError
	}

	writeError(w, httpStatusCode, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = jsonv2.MarshalWrite(w, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := jsonv2.Marshal(payload, jsonv2.JoinOptions(jsontext.Multiline(true), jsontext.WithIndent("  ")))
	if err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
		writeError(w, http.StatusInternalServerError, "encoding failure")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("ETag", etagFor(body))
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Printf("ERROR: Failed to write response: %v", err)
	}
}

// etagFor derives a strong ETag from the response body. xxhash is plenty for
// cache validation.
func etagFor(body []byte) string {
	return fmt.Sprintf(`"%x"`, xxhash.Sum64(body))
}

func RequestSizeLimit(maxSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxSize)
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) SetupRoutes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Post("/api/auth/login", h.HandleLogin)
	router.Post("/api/auth/verify", h.HandleVerify)

	router.Get("/api/{resourceName}", h.HandleList)
	router.Get("/api/{resourceName}/{recordID}", h.HandleGet)

	// write operations carry size limits and require a session token
	router.Group(func(r chi.Router) {
		r.Use(RequestSizeLimit(MaxRequestSize))
		r.Use(h.requireAuth)
		r.Post("/api/upload/image", h.HandleUpload)
		r.Post("/api/{resourceName}", h.HandleCreate)
		r.Put("/api/{resourceName}/{recordID}", h.HandleUpdate)
		r.Delete("/api/{resourceName}/{recordID}", h.HandleDelete)
	})

	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.uploadDir)))
	router.Get("/uploads/*", uploads.ServeHTTP)

	return router
}

// requireAuth rejects requests without a known bearer token.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || !h.knownToken(token) {
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func (h *Handler) knownToken(token string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tokens[token]
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := jsonv2.UnmarshalRead(r.Body, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "malformed credentials")
		return
	}

	if creds.Email != h.creds.Email || creds.Password != h.creds.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	newUUID, err := uuid.NewV4()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not mint token")
		return
	}
	token := newUUID.String()

	h.mu.Lock()
	h.tokens[token] = true
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  map[string]any{"email": creds.Email, "role": "admin"},
	})
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" || !h.knownToken(token) {
		writeError(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

// descriptor resolves the URL's resource segment against the registry, so the
// stub only serves entities the client knows about.
func (h *Handler) descriptor(w http.ResponseWriter, r *http.Request) (domain.Descriptor, bool) {
	name := chi.URLParam(r, "resourceName")
	desc, ok := h.reg.Lookup(name)
	if !ok || desc.LocalOnly {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown resource %q", name))
		return domain.Descriptor{}, false
	}
	return desc, true
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	desc, ok := h.descriptor(w, r)
	if !ok {
		return
	}

	records, err := h.repo.List(desc.Name)
	if err != nil {
		h.handleError(w, err)
		return
	}

	body, err := jsonv2.Marshal(records, jsonv2.JoinOptions(jsontext.Multiline(true), jsontext.WithIndent("  ")))
	if err != nil {
		log.Printf("ERROR: Failed to encode response for '%s': %v", desc.Name, err)
		writeError(w, http.StatusInternalServerError, "encoding failure")
		return
	}

	etag := etagFor(body)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Printf("ERROR: Failed to write response for '%s': %v", desc.Name, err)
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	desc, ok := h.descriptor(w, r)
	if !ok {
		return
	}

	record, err := h.repo.Get(desc.Name, desc.IDField, chi.URLParam(r, "recordID"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	desc, ok := h.descriptor(w, r)
	if !ok {
		return
	}

	record, err := h.decodePayload(r)
	if err != nil {
		log.Printf("ERROR: Failed to decode request for '%s': %v", desc.Name, err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.repo.Create(desc.Name, desc.IDField, record)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	desc, ok := h.descriptor(w, r)
	if !ok {
		return
	}

	record, err := h.decodePayload(r)
	if err != nil {
		log.Printf("ERROR: Failed to decode request for '%s': %v", desc.Name, err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.repo.Update(desc.Name, desc.IDField, chi.URLParam(r, "recordID"), record)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	desc, ok := h.descriptor(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(desc.Name, desc.IDField, chi.URLParam(r, "recordID")); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodePayload accepts both encodings the client sends: plain JSON, and
// multipart forms where array/object fields arrive JSON-stringified and an
// optional file part becomes a stored asset URL.
func (h *Handler) decodePayload(r *http.Request) (domain.Record, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		record := make(domain.Record)
		if err := jsonv2.UnmarshalRead(r.Body, &record); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return record, nil
	}

	if err := r.ParseMultipartForm(MaxRequestSize); err != nil {
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}

	record := make(domain.Record)
	for key, values := range r.MultipartForm.Value {
		if len(values) == 0 {
			continue
		}
		record[key] = decodeFormValue(values[0])
	}

	for field, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		url, err := h.storeUpload(headers[0].Filename, func() (io.ReadCloser, error) {
			f, err := headers[0].Open()
			return f, err
		})
		if err != nil {
			return nil, err
		}
		record[field] = url
	}

	return record, nil
}

// decodeFormValue undoes the client's JSON-stringification of array and
// object fields; scalars pass through as strings.
func decodeFormValue(value string) any {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var decoded any
		if err := jsonv2.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	switch trimmed {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer file.Close()

	url, err := h.storeUpload(header.Filename, func() (io.ReadCloser, error) { return file, nil })
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) storeUpload(filename string, open func() (io.ReadCloser, error)) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create upload directory: %w", err)
	}

	newUUID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("could not generate uuid: %w", err)
	}

	name := newUUID.String() + "-" + filepath.Base(filename)
	target := filepath.Join(h.uploadDir, name)

	src, err := open()
	if err != nil {
		return "", fmt.Errorf("could not open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, defaultFilePermissions)
	if err != nil {
		return "", fmt.Errorf("could not store upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("could not store upload: %w", err)
	}

	return "/uploads/" + name, nil
}
