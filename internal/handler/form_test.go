package handler

import (
	"bytes"
	"context"
	"html/template"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/facilform-dev/facilform/internal/apiclient"
	"github.com/facilform-dev/facilform/internal/attachments"
	"github.com/facilform-dev/facilform/internal/config"
	"github.com/facilform-dev/facilform/internal/domain"
	"github.com/facilform-dev/facilform/internal/form"
	"github.com/facilform-dev/facilform/internal/geo"
	"github.com/facilform-dev/facilform/internal/session"
	"github.com/facilform-dev/facilform/internal/textproc"
	"github.com/facilform-dev/facilform/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Device service stubs: permission granted, fixed position.
type stubDevice struct{}

func (stubDevice) Query(ctx context.Context) (geo.PermissionState, error) {
	return geo.PermissionGranted, nil
}

func (stubDevice) Changes(ctx context.Context) <-chan geo.PermissionState {
	return make(chan geo.PermissionState)
}

func (stubDevice) Current(ctx context.Context) (domain.Coordinates, error) {
	return domain.Coordinates{Lat: 52.52, Lng: 13.4}, nil
}

// formTemplate is a stripped-down rendering of formPage, enough to
// observe the handler's outputs.
const formTemplate = `{{if .Notice}}NOTICE:{{.Notice.Title}};{{end}}` +
	`{{if .MapReady}}CENTER:{{.MapCenter.Lat}},{{.MapCenter.Lng}};{{end}}` +
	`{{if .Marker.Set}}MARKER:{{.Marker.Lat}},{{.Marker.Lng}};{{end}}` +
	`{{range $f, $m := .FieldErrors}}ERR:{{$f}};{{end}}` +
	`GALLERY:{{len .Gallery}}`

type env struct {
	server     *httptest.Server
	client     *http.Client
	storeCalls *int
	registry   *session.Registry
	tokens     session.TokenService
}

func newEnv(t *testing.T, storeHandler http.HandlerFunc) *env {
	t.Helper()

	var storeCalls int
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		storeCalls++
		if storeHandler != nil {
			storeHandler(w, r)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(store.Close)

	previews, err := attachments.NewPreviewStore(t.TempDir(), 64)
	require.NoError(t, err)

	cfg := config.Public{
		ListingPath:            "/facilities",
		MaxAttachments:         5,
		MaxAttachmentSizeBytes: 1024 * 1024,
		AllowedImageMimeTypes:  []string{"image/png"},
	}

	engine := validation.NewEngine()
	storeClient := apiclient.New(store.URL)
	registry := session.NewRegistry(time.Hour, func(f *session.Form) (*geo.Selector, *attachments.Manager, *form.ErrorState, *form.Controller) {
		selector := geo.NewSelector()
		manager := attachments.NewManager(previews, cfg.AllowedImageMimeTypes, cfg.MaxAttachmentSizeBytes)
		errState := form.NewErrorState()
		controller := form.NewController(engine, selector, manager, errState, storeClient, f, f, cfg.ListingPath)
		return selector, manager, errState, controller
	})

	probe := geo.NewProbe(stubDevice{}, stubDevice{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	probe.Run(ctx)

	h := New(
		map[string]*template.Template{
			"form.html": template.Must(template.New("form.html").Parse(formTemplate)),
		},
		cfg, registry, probe, previews, textproc.New(),
	)

	tokens := session.NewTokenService("test-key", time.Hour)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(tokens, time.Hour))
		r.Get("/facilities/new", h.FormGetHandler)
		r.Post("/facilities/new", h.FormPostHandler)
		r.Post("/facilities/new/location", h.LocationPostHandler)
		r.Post("/facilities/new/images", h.ImagesPostHandler)
		r.Post("/facilities/new/images/{id}/delete", h.ImageDeleteHandler)
		r.Get("/previews/{id}", h.PreviewGetHandler)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &env{server: server, client: client, storeCalls: &storeCalls, registry: registry, tokens: tokens}
}

func (e *env) page(t *testing.T) string {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + "/facilities/new")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func (e *env) clickMap(t *testing.T, lat, lng float64) {
	t.Helper()
	body := strings.NewReader(`{"lat":` + strconv.FormatFloat(lat, 'f', -1, 64) +
		`,"lng":` + strconv.FormatFloat(lng, 'f', -1, 64) + `}`)
	resp, err := e.client.Post(e.server.URL+"/facilities/new/location", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func (e *env) uploadImages(t *testing.T, names ...string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := w.CreateFormFile("images", name)
		require.NoError(t, err)
		var img bytes.Buffer
		require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))
		_, err = part.Write(img.Bytes())
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	resp, err := e.client.Post(e.server.URL+"/facilities/new/images", w.FormDataContentType(), &buf)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func (e *env) submit(t *testing.T, values url.Values) *http.Response {
	t.Helper()
	resp, err := e.client.PostForm(e.server.URL+"/facilities/new", values)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func validForm() url.Values {
	return url.Values{
		"name":             {"Dockside Gym"},
		"description":      {"Weights and rowing machines."},
		"opening_hours":    {"7-22"},
		"open_on_weekends": {"true"},
	}
}

func TestFormPage_ShowsAcquiredMapCenter(t *testing.T) {
	e := newEnv(t, nil)
	assert.Contains(t, e.page(t), "CENTER:52.52,13.4;")
}

func TestLocationClick_UpdatesMarker(t *testing.T) {
	e := newEnv(t, nil)

	e.clickMap(t, 10, 20)
	assert.Contains(t, e.page(t), "MARKER:10,20;")

	// A second click replaces the first.
	e.clickMap(t, 30, 40)
	page := e.page(t)
	assert.Contains(t, page, "MARKER:30,40;")
	assert.NotContains(t, page, "MARKER:10,20;")
}

func TestImageUploadAndRemove(t *testing.T) {
	e := newEnv(t, nil)

	resp := e.uploadImages(t, "a.png", "b.png")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, e.page(t), "GALLERY:2")

	// Re-picking replaces the gallery instead of appending.
	resp = e.uploadImages(t, "c.png")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, e.page(t), "GALLERY:1")

	// Remove it through its id.
	f := e.sessionForm(t)
	id := f.Manager.List()[0].ID
	req, err := http.NewRequest("POST", e.server.URL+"/facilities/new/images/"+id.String()+"/delete", nil)
	require.NoError(t, err)
	delResp, err := e.client.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	require.Equal(t, http.StatusSeeOther, delResp.StatusCode)
	assert.Contains(t, e.page(t), "GALLERY:0")
}

func TestPreviewServing(t *testing.T) {
	e := newEnv(t, nil)
	e.uploadImages(t, "a.png")

	id := e.sessionForm(t).Manager.List()[0].ID
	resp, err := e.client.Get(e.server.URL + "/previews/" + id.String())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
}

func TestSubmit_ValidFlow(t *testing.T) {
	e := newEnv(t, nil)
	e.clickMap(t, 10, 10)
	e.uploadImages(t, "a.png")

	resp := e.submit(t, validForm())
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/facilities", resp.Header.Get("Location"))
	assert.Equal(t, 1, *e.storeCalls)

	// The buffered confirmation shows on the next page render.
	page := e.page(t)
	assert.Contains(t, page, "NOTICE:")
	assert.Contains(t, page, "GALLERY:0")
	assert.NotContains(t, page, "ERR:")
}

func TestSubmit_InvalidStaysOnForm(t *testing.T) {
	e := newEnv(t, nil)
	// No location, no images: submit with only the text fields filled.
	resp := e.submit(t, validForm())

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/facilities/new", resp.Header.Get("Location"))
	assert.Equal(t, 0, *e.storeCalls)

	page := e.page(t)
	assert.Contains(t, page, "ERR:location;")
	assert.Contains(t, page, "ERR:attachments;")
	assert.NotContains(t, page, "ERR:name;")
}

func TestSubmit_ConflictShowsModal(t *testing.T) {
	e := newEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"bcode":1001}`))
	})
	e.clickMap(t, 10, 10)
	e.uploadImages(t, "a.png")

	resp := e.submit(t, validForm())
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	page := e.page(t)
	assert.Contains(t, page, "NOTICE:")
	assert.NotContains(t, page, "ERR:", "business conflicts never populate field slots")
	// Draft survives a conflict.
	assert.Contains(t, page, "GALLERY:1")
}

// sessionForm exposes the form bound to the client's cookie session.
func (e *env) sessionForm(t *testing.T) *session.Form {
	t.Helper()
	u, err := url.Parse(e.server.URL)
	require.NoError(t, err)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == session.CookieName {
			sid, err := e.tokens.DecodeToken(c.Value)
			require.NoError(t, err)
			return e.registry.Get(sid)
		}
	}
	t.Fatal("client has no session cookie")
	return nil
}
