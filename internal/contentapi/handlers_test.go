package contentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"tributo.band/site/internal/cms"
	"tributo.band/site/internal/notify"
	"tributo.band/site/internal/upload"
)

type recordingNotifier struct {
	mu       sync.Mutex
	contacts []notify.Contact
	refuse   bool
}

func (n *recordingNotifier) NotifyContact(_ context.Context, c notify.Contact) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contacts = append(n.contacts, c)
	return !n.refuse
}

func (n *recordingNotifier) received() []notify.Contact {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Contact(nil), n.contacts...)
}

func newTestAPI(t *testing.T, opts ...Option) (*httptest.Server, *MemoryStore) {
	t.Helper()

	store := NewMemoryStore()
	seed := Seed{
		"band-info": map[string]any{
			"bandName": "SODA STEREO TRIBUTO",
			"shortBio": "Tributo oficial",
			"image":    map[string]any{"id": 7, "url": "/uploads/hero.jpg", "name": "hero.jpg"},
		},
		"services": []any{
			map[string]any{"title": "Eventos privados", "order": 2},
			map[string]any{"title": "Banda tributo", "order": 1},
			map[string]any{"title": "Sin orden"},
		},
		"band-members": []any{
			map[string]any{"name": "Ana", "role": "Voz", "order": 1, "photo": map[string]any{"url": "/uploads/ana.jpg"}},
		},
	}
	require.NoError(t, seed.Apply(context.Background(), store, nil))

	router := chi.NewRouter()
	NewHandlers(store, opts...).Routes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestSingleTypeIsReadableByTheClient(t *testing.T) {
	t.Parallel()

	srv, _ := newTestAPI(t)
	client := cms.NewClient(srv.URL + "/api")

	info, ok, err := client.BandInfo(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "SODA STEREO TRIBUTO", info.BandName.String())
	require.NotNil(t, info.Image)
	require.Equal(t, "/uploads/hero.jpg", info.Image.URL)
}

func TestMediaIsOmittedUnlessPopulated(t *testing.T) {
	t.Parallel()

	srv, _ := newTestAPI(t)

	status, body := getJSON(t, srv.URL+"/api/band-info")
	require.Equal(t, http.StatusOK, status)
	attrs := body["data"].(map[string]any)["attributes"].(map[string]any)
	require.NotContains(t, attrs, "image")

	_, body = getJSON(t, srv.URL+"/api/band-info?populate=image")
	attrs = body["data"].(map[string]any)["attributes"].(map[string]any)
	relation := attrs["image"].(map[string]any)["data"].(map[string]any)
	require.EqualValues(t, 7, relation["id"])
	require.Equal(t, "/uploads/hero.jpg", relation["attributes"].(map[string]any)["url"])
}

func TestCollectionSortAndPagination(t *testing.T) {
	t.Parallel()

	srv, _ := newTestAPI(t)

	status, body := getJSON(t, srv.URL+"/api/services?sort=order:asc")
	require.Equal(t, http.StatusOK, status)
	data := body["data"].([]any)
	require.Len(t, data, 3)
	titles := make([]string, 0, len(data))
	for _, item := range data {
		titles = append(titles, item.(map[string]any)["attributes"].(map[string]any)["title"].(string))
	}
	require.Equal(t, []string{"Banda tributo", "Eventos privados", "Sin orden"}, titles)

	_, body = getJSON(t, srv.URL+"/api/services?sort=order:desc&pagination[page]=2&pagination[pageSize]=1")
	data = body["data"].([]any)
	require.Len(t, data, 1)
	require.Equal(t, "Banda tributo", data[0].(map[string]any)["attributes"].(map[string]any)["title"])
	meta := body["meta"].(map[string]any)["pagination"].(map[string]any)
	require.EqualValues(t, 3, meta["total"])
	require.EqualValues(t, 3, meta["pageCount"])

	status, _ = getJSON(t, srv.URL+"/api/services?sort=order:sideways")
	require.Equal(t, http.StatusBadRequest, status)
}

func TestFindOneAndMissingContent(t *testing.T) {
	t.Parallel()

	srv, store := newTestAPI(t)
	entries, err := store.List(context.Background(), "band-members")
	require.NoError(t, err)

	status, body := getJSON(t, srv.URL+"/api/band-members/"+jsonNumber(entries[0].ID)+"?populate=photo")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Ana", body["data"].(map[string]any)["attributes"].(map[string]any)["name"])

	status, body = getJSON(t, srv.URL+"/api/band-members/9999")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NotFoundError", body["error"].(map[string]any)["name"])

	status, _ = getJSON(t, srv.URL+"/api/site-setting")
	require.Equal(t, http.StatusNotFound, status, "single type without content")

	status, _ = getJSON(t, srv.URL+"/api/contacts")
	require.Equal(t, http.StatusNotFound, status, "contacts are write only")

	status, _ = getJSON(t, srv.URL+"/api/unknown")
	require.Equal(t, http.StatusNotFound, status)
}

func TestContactSubmissionStoresAndNotifies(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	srv, store := newTestAPI(t, WithNotifier(notifier))
	client := cms.NewClient(srv.URL + "/api")

	rec, err := client.SubmitContact(context.Background(), cms.ContactSubmission{
		Name:      " Ana ",
		Email:     "ana@example.com",
		Phone:     "+54 11 4555-1234",
		EventType: "Casamiento",
		Message:   "Hola",
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.DocumentID)

	stored, err := store.List(context.Background(), TypeContacts)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "Ana", stored[0].Attributes["name"])
	require.NotContains(t, stored[0].Attributes, "eventDate")

	received := notifier.received()
	require.Len(t, received, 1)
	require.Equal(t, rec.DocumentID, received[0].DocumentID)
	require.Equal(t, "Casamiento", received[0].EventType)
}

func TestContactNotificationFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	srv, _ := newTestAPI(t, WithNotifier(&recordingNotifier{refuse: true}))
	resp, err := http.Post(srv.URL+"/api/contacts", "application/json",
		strings.NewReader(`{"data":{"name":"Ana","email":"ana@example.com","message":"Hola"}}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestContactSubmissionValidation(t *testing.T) {
	t.Parallel()

	srv, store := newTestAPI(t)
	cases := map[string]string{
		"not an envelope": `{"name":"Ana"}`,
		"bad email":       `{"data":{"name":"Ana","email":"ana@","message":"Hola"}}`,
		"blank message":   `{"data":{"name":"Ana","email":"ana@example.com","message":"  "}}`,
		"malformed json":  `{"data":`,
	}
	for name, payload := range cases {
		resp, err := http.Post(srv.URL+"/api/contacts", "application/json", strings.NewReader(payload))
		require.NoError(t, err, name)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
	}
	stored, err := store.List(context.Background(), TypeContacts)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestUploadStoresFileAndListsFormats(t *testing.T) {
	t.Parallel()

	cfg := upload.Default()
	local, err := upload.NewLocal(t.TempDir(), "/uploads", cfg)
	require.NoError(t, err)
	srv, store := newTestAPI(t, WithUploads(local, cfg))

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 1200, 800))))
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "escenario.png")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var files []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&files))
	require.Len(t, files, 1)
	require.Equal(t, "escenario.png", files[0]["name"])
	require.Equal(t, []any{"large", "medium", "small"}, files[0]["variants"])
	url := files[0]["url"].(string)
	require.True(t, strings.HasPrefix(url, "/uploads/"))

	served, err := http.Get(srv.URL + url)
	require.NoError(t, err)
	served.Body.Close()
	require.Equal(t, http.StatusOK, served.StatusCode)

	stored, err := store.List(context.Background(), TypeUploadFiles)
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestUploadRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	cfg := upload.Default()
	cfg.SizeLimit = 16
	local, err := upload.NewLocal(t.TempDir(), "/uploads", cfg)
	require.NoError(t, err)
	srv, _ := newTestAPI(t, WithUploads(local, cfg))

	resp, err := http.Post(srv.URL+"/api/upload", "multipart/form-data; boundary=x", strings.NewReader(strings.Repeat("a", 64)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func jsonNumber(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func TestContentIsReadOnly(t *testing.T) {
	t.Parallel()

	srv, _ := newTestAPI(t)
	resp, err := http.Post(srv.URL+"/api/services", "application/json", strings.NewReader(`{"data":{"title":"x"}}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
