package devstub_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsonv2 "encoding/json/v2"

	"agencyctl/internal/core/registry"
	"agencyctl/internal/devstub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := devstub.NewRepository(t.TempDir())
	require.NoError(t, err)

	reg, err := registry.Load()
	require.NoError(t, err)

	handler := devstub.NewHandler(repo, reg, devstub.Credentials{}, t.TempDir())
	srv := httptest.NewServer(handler.SetupRoutes())
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"admin@agency.test","password":"admin123"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, jsonv2.UnmarshalRead(resp.Body, &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func doJSON(t *testing.T, method, url, token, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)

	t.Run("valid credentials mint a token", func(t *testing.T) {
		token := login(t, srv)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "",
			`{"email":"admin@agency.test","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, string(body), "invalid credentials")
	})

	t.Run("verify accepts a minted token", func(t *testing.T) {
		token := login(t, srv)
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/verify", token, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("verify rejects an unknown token", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/verify", "forged", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestCRUDFlow(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	// create
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/faqs", token,
		`{"question":"How long?","answer":"Six weeks.","category":"Services"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created map[string]any
	require.NoError(t, jsonv2.Unmarshal(body, &created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id, "create must assign an id")
	assert.NotEmpty(t, created["createdAt"])

	// list shows it, publicly
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/faqs", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []map[string]any
	require.NoError(t, jsonv2.Unmarshal(body, &listed))
	require.Len(t, listed, 1)

	// update
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/api/faqs/"+id, token,
		`{"question":"How long really?","answer":"Six weeks.","category":"Services"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated map[string]any
	require.NoError(t, jsonv2.Unmarshal(body, &updated))
	assert.Equal(t, "How long really?", updated["question"])
	assert.Equal(t, created["createdAt"], updated["createdAt"], "creation time survives updates")

	// get
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/faqs/"+id, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "How long really?")

	// delete
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/faqs/"+id, token, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/faqs/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthGuard(t *testing.T) {
	srv := newTestServer(t)

	testCases := map[string]struct {
		method string
		path   string
		body   string
	}{
		"create": {http.MethodPost, "/api/faqs", `{"question":"q"}`},
		"update": {http.MethodPut, "/api/faqs/x", `{"question":"q"}`},
		"delete": {http.MethodDelete, "/api/faqs/x", ""},
		"upload": {http.MethodPost, "/api/upload/image", ""},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			resp, _ := doJSON(t, tc.method, srv.URL+tc.path, "", tc.body)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestConditionalList(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/faqs", token, `{"question":"q","answer":"a"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/faqs", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	// revalidation with the current tag gets a 304
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/faqs", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)

	// a write changes the collection, so the tag stops matching
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/faqs", token, `{"question":"q2","answer":"a2"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/api/faqs", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	resp3, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusOK, resp3.StatusCode)
}

func TestMultipartCreate(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("title", "Shipping the relaunch"))
	require.NoError(t, writer.WriteField("tags", `["process","design"]`))
	require.NoError(t, writer.WriteField("featured", "true"))
	part, err := writer.CreateFormFile("image", "cover.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/blogs", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created map[string]any
	require.NoError(t, jsonv2.Unmarshal(body, &created))

	// stringified arrays and booleans come back as their real types
	tags, ok := created["tags"].([]any)
	require.True(t, ok, "tags must decode to an array, got %T", created["tags"])
	assert.Len(t, tags, 2)
	assert.Equal(t, true, created["featured"])

	// the file part becomes a served asset URL
	imageURL, _ := created["image"].(string)
	require.True(t, strings.HasPrefix(imageURL, "/uploads/"), "image url: %q", imageURL)

	resp2, err := http.Get(srv.URL + imageURL)
	require.NoError(t, err)
	defer resp2.Body.Close()
	stored, err := io.ReadAll(resp2.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), stored)
}

func TestUploadEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "logo.svg")
	require.NoError(t, err)
	_, err = part.Write([]byte("<svg/>"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/upload/image", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		URL string `json:"url"`
	}
	require.NoError(t, jsonv2.UnmarshalRead(resp.Body, &result))
	assert.True(t, strings.HasPrefix(result.URL, "/uploads/"))
}

func TestUnknownResource(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/widgets", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "unknown resource")

	// local-only resources are invisible to the HTTP surface
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/applications", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
