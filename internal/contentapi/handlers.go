package contentapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tributo.band/site/internal/cms"
	"tributo.band/site/internal/contact"
	"tributo.band/site/internal/httpx"
	"tributo.band/site/internal/notify"
	"tributo.band/site/internal/observability"
	"tributo.band/site/internal/upload"
)

const (
	maxContactBody     = 64 << 10
	maxMultipartMemory = 32 << 20
	uploadFormField    = "files"
)

// Notifier receives stored contact submissions.
type Notifier interface {
	NotifyContact(ctx context.Context, c notify.Contact) bool
}

// Handlers serves the content API.
type Handlers struct {
	store        Store
	notifier     Notifier
	uploads      *upload.Local
	uploadCfg    upload.Config
	publicOrigin string
}

// Option customises Handlers.
type Option func(*Handlers)

// WithNotifier sends contact notifications through n.
func WithNotifier(n Notifier) Option {
	return func(h *Handlers) {
		h.notifier = n
	}
}

// WithUploads enables the upload endpoint backed by local storage.
func WithUploads(local *upload.Local, cfg upload.Config) Option {
	return func(h *Handlers) {
		h.uploads = local
		h.uploadCfg = cfg
	}
}

// WithPublicOrigin makes upload URLs in responses absolute.
func WithPublicOrigin(origin string) Option {
	return func(h *Handlers) {
		h.publicOrigin = strings.TrimRight(strings.TrimSpace(origin), "/")
	}
}

// NewHandlers constructs the content API handlers.
func NewHandlers(store Store, opts ...Option) *Handlers {
	h := &Handlers{store: store}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the API endpoints.
func (h *Handlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/api/{type}", h.find)
	r.Get("/api/{type}/{id}", h.findOne)
	r.Post("/api/{type}", h.create)
	if h.uploads != nil {
		r.With(upload.LimitMiddleware(h.uploadCfg)).Post("/api/upload", h.upload)
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.uploads.Dir()))))
	}
}

func (h *Handlers) publicType(w http.ResponseWriter, r *http.Request) (ContentType, bool) {
	ct, ok := LookupType(chi.URLParam(r, "type"))
	if !ok || !ct.Public {
		httpx.Write(r.Context(), w, httpx.NotFound("content type not found"))
		return ContentType{}, false
	}
	return ct, true
}

func (h *Handlers) find(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.publicType(w, r)
	if !ok {
		return
	}
	query, err := parseListQuery(r.URL.Query())
	if err != nil {
		httpx.Write(r.Context(), w, httpx.BadRequest("%v", err))
		return
	}
	entries, err := h.store.List(r.Context(), ct.Name)
	if err != nil {
		writeStoreError(r.Context(), w, err)
		return
	}

	if ct.Single {
		if len(entries) == 0 {
			httpx.Write(r.Context(), w, httpx.NotFound("%s has no content", ct.Name))
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"data": formatEntry(ct, entries[len(entries)-1], query),
			"meta": map[string]any{},
		})
		return
	}

	sortEntries(entries, query.sort)
	pageEntries, meta := paginate(entries, query.page, query.pageSize)
	data := make([]map[string]any, 0, len(pageEntries))
	for _, e := range pageEntries {
		data = append(data, formatEntry(ct, e, query))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data": data,
		"meta": map[string]any{"pagination": meta},
	})
}

func (h *Handlers) findOne(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.publicType(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if ct.Single || err != nil || id <= 0 {
		httpx.Write(r.Context(), w, httpx.NotFound("entry not found"))
		return
	}
	query, err := parseListQuery(r.URL.Query())
	if err != nil {
		httpx.Write(r.Context(), w, httpx.BadRequest("%v", err))
		return
	}
	entry, err := h.store.Get(r.Context(), ct.Name, id)
	if err != nil {
		writeStoreError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data": formatEntry(ct, entry, query),
		"meta": map[string]any{},
	})
}

// create accepts writes for contacts only; content is managed through seeding.
func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "type") != TypeContacts {
		httpx.Write(r.Context(), w, httpx.ReadOnly(chi.URLParam(r, "type")))
		return
	}
	h.createContact(w, r)
}

func (h *Handlers) createContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx).Named("contentapi")

	var body struct {
		Data *cms.ContactSubmission `json:"data"`
	}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContactBody))
	if err := decoder.Decode(&body); err != nil || body.Data == nil {
		httpx.Write(ctx, w, httpx.BadRequest(`request body must be {"data": {...}}`))
		return
	}
	sub := trimSubmission(*body.Data)
	if fields := invalidContactFields(sub); len(fields) > 0 {
		httpx.Write(ctx, w, httpx.Invalid("contact submission is invalid", fields...))
		return
	}

	attrs := map[string]any{
		"name":    sub.Name,
		"email":   sub.Email,
		"message": sub.Message,
	}
	for key, value := range map[string]string{"phone": sub.Phone, "eventType": sub.EventType, "eventDate": sub.EventDate} {
		if value != "" {
			attrs[key] = value
		}
	}
	entry, err := h.store.Create(ctx, TypeContacts, attrs)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	logger.Info("contact submission stored", zap.String("document_id", entry.DocumentID))

	if h.notifier != nil {
		queued := h.notifier.NotifyContact(ctx, notify.Contact{
			DocumentID: entry.DocumentID,
			Name:       sub.Name,
			Email:      sub.Email,
			Phone:      sub.Phone,
			EventType:  sub.EventType,
			EventDate:  sub.EventDate,
			Message:    sub.Message,
		})
		if !queued {
			logger.Warn("contact notification not queued", zap.String("document_id", entry.DocumentID))
		}
	}

	ct, _ := LookupType(TypeContacts)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data": formatEntry(ct, entry, listQuery{}),
		"meta": map[string]any{},
	})
}

func trimSubmission(s cms.ContactSubmission) cms.ContactSubmission {
	return cms.ContactSubmission{
		Name:      strings.TrimSpace(s.Name),
		Email:     strings.TrimSpace(s.Email),
		Phone:     strings.TrimSpace(s.Phone),
		EventType: strings.TrimSpace(s.EventType),
		EventDate: strings.TrimSpace(s.EventDate),
		Message:   strings.TrimSpace(s.Message),
	}
}

func invalidContactFields(s cms.ContactSubmission) []string {
	var fields []string
	if s.Name == "" {
		fields = append(fields, "name")
	}
	if !contact.ValidEmail(s.Email) {
		fields = append(fields, "email")
	}
	if s.Message == "" {
		fields = append(fields, "message")
	}
	return fields
}

func (h *Handlers) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Write(ctx, w, httpx.TooLarge(h.uploadCfg.SizeLimit))
			return
		}
		httpx.Write(ctx, w, httpx.BadRequest("multipart form expected"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadFormField]
	if len(headers) == 0 {
		httpx.Write(ctx, w, httpx.BadRequest("no files were uploaded"))
		return
	}

	out := make([]map[string]any, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			httpx.Write(ctx, w, httpx.BadRequest("unreadable upload"))
			return
		}
		file, err := h.uploads.Save(fh.Filename, src)
		_ = src.Close()
		if err != nil {
			observability.FromContext(ctx).Error("store upload", zap.Error(err))
			httpx.Write(ctx, w, err)
			return
		}

		attrs := map[string]any{
			"name":     file.Name,
			"hash":     file.Hash,
			"ext":      file.Ext,
			"mime":     file.Mime,
			"size":     file.Size,
			"url":      file.URL,
			"variants": file.Formats,
		}
		if file.Width > 0 {
			attrs["width"] = file.Width
			attrs["height"] = file.Height
		}
		entry, err := h.store.Create(ctx, TypeUploadFiles, attrs)
		if err != nil {
			writeStoreError(ctx, w, err)
			return
		}
		item := map[string]any{"id": entry.ID, "documentId": entry.DocumentID}
		for k, v := range entry.Attributes {
			item[k] = v
		}
		if h.publicOrigin != "" {
			item["url"] = h.publicOrigin + file.URL
		}
		out = append(out, item)
	}
	httpx.JSON(w, http.StatusCreated, out)
}

// formatEntry renders e in the {id, documentId, attributes} shape. Media
// relations appear only when populated.
func formatEntry(ct ContentType, e Entry, q listQuery) map[string]any {
	attrs := cloneMap(e.Attributes)
	if attrs == nil {
		attrs = map[string]any{}
	}
	for _, field := range ct.Media {
		if !q.populates(field) {
			delete(attrs, field)
			continue
		}
		attrs[field] = mediaRelation(attrs[field])
	}
	attrs["createdAt"] = e.CreatedAt.UTC().Format(time.RFC3339)
	attrs["updatedAt"] = e.UpdatedAt.UTC().Format(time.RFC3339)
	return map[string]any{
		"id":         e.ID,
		"documentId": e.DocumentID,
		"attributes": attrs,
	}
}

func mediaRelation(value any) map[string]any {
	media, ok := value.(map[string]any)
	if !ok || len(media) == 0 {
		return map[string]any{"data": nil}
	}
	attrs := make(map[string]any, len(media))
	var id any = 0
	for k, v := range media {
		if k == "id" {
			id = v
			continue
		}
		attrs[k] = v
	}
	return map[string]any{"data": map[string]any{"id": id, "attributes": attrs}}
}

func writeStoreError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Write(ctx, w, httpx.NotFound("entry not found"))
	case errors.Is(err, ErrUnknownType):
		httpx.Write(ctx, w, httpx.NotFound("content type not found"))
	default:
		observability.FromContext(ctx).Error("content store failure", zap.Error(err))
		httpx.Write(ctx, w, httpx.Unavailable("content store failure"))
	}
}
