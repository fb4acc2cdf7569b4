package restapi_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"agencyctl/internal/adapters/driven/restapi"
	"agencyctl/internal/adapters/driven/session"
	"agencyctl/internal/core/domain"
	"agencyctl/internal/core/service/resource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blogsDescriptor() domain.Descriptor {
	return domain.Descriptor{
		Name:           "blogs",
		Title:          "Blogs",
		BasePath:       "/api/blogs",
		IDField:        "_id",
		SupportsUpload: true,
		Fields: []domain.FieldSpec{
			{Name: "title", Label: "Title", Kind: domain.FieldText, Required: true},
			{Name: "tags", Label: "Tags", Kind: domain.FieldList},
		},
	}
}

func newSession(t *testing.T, token string) *session.Store {
	t.Helper()

	sess, err := session.Open(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	if token != "" {
		require.NoError(t, sess.Login(token, nil))
	}
	return sess
}

func TestListUnwrapping(t *testing.T) {
	testCases := map[string]struct {
		body      string
		wantCount int
		wantErr   bool
	}{
		"bare array": {
			body:      `[{"_id":"a","title":"one"},{"_id":"b","title":"two"}]`,
			wantCount: 2,
		},
		"data envelope": {
			body:      `{"success":true,"data":[{"_id":"a","title":"one"}]}`,
			wantCount: 1,
		},
		"empty array": {
			body:      `[]`,
			wantCount: 0,
		},
		"garbage": {
			body:    `"just a string"`,
			wantErr: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			client := restapi.NewClient(srv.URL, newSession(t, ""))
			gw := restapi.NewGateway(client, blogsDescriptor())

			records, err := gw.List(context.Background())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tc.wantCount)
		})
	}
}

func TestConditionalGet(t *testing.T) {
	const etag = `"abc123"`
	payload := `[{"_id":"a","title":"one"}]`
	requests := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, payload)
	}))
	defer srv.Close()

	client := restapi.NewClient(srv.URL, newSession(t, ""))
	gw := restapi.NewGateway(client, blogsDescriptor())

	first, err := gw.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	// the second call revalidates; the cached payload comes back with the
	// not-modified sentinel so the store can keep its items
	second, err := gw.List(context.Background())
	assert.ErrorIs(t, err, resource.ErrNotModified)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, requests)
}

func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"token expired"}`)
	}))
	defer srv.Close()

	sess := newSession(t, "stale-token")
	hookCalls := 0

	client := restapi.NewClient(srv.URL, sess, restapi.WithUnauthorizedHook(func() {
		hookCalls++
	}))
	gw := restapi.NewGateway(client, blogsDescriptor())

	_, err := gw.List(context.Background())
	assert.ErrorIs(t, err, resource.ErrUnauthorized)
	assert.ErrorContains(t, err, "token expired")

	assert.False(t, sess.IsAuthenticated(), "a 401 must clear the session")
	assert.Equal(t, 1, hookCalls)
}

func TestStatusErrors(t *testing.T) {
	testCases := map[string]struct {
		status   int
		body     string
		wantIs   error
		wantText string
	}{
		"404 maps to not found": {
			status:   http.StatusNotFound,
			body:     `{"message":"no such blog"}`,
			wantIs:   resource.ErrRecordNotFound,
			wantText: "no such blog",
		},
		"error key is accepted too": {
			status:   http.StatusBadRequest,
			body:     `{"error":"title is required"}`,
			wantText: "title is required",
		},
		"non-json body is carried verbatim": {
			status:   http.StatusInternalServerError,
			body:     "oops",
			wantText: "oops",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			client := restapi.NewClient(srv.URL, newSession(t, ""))
			gw := restapi.NewGateway(client, blogsDescriptor())

			_, err := gw.GetByID(context.Background(), "a")
			require.Error(t, err)
			if tc.wantIs != nil {
				assert.ErrorIs(t, err, tc.wantIs)
			}
			assert.ErrorContains(t, err, tc.wantText)

			var statusErr *resource.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tc.status, statusErr.Status)
		})
	}
}

func TestCreateMultipart(t *testing.T) {
	var (
		gotContentType string
		gotTitle       string
		gotTags        string
		gotFile        []byte
		gotFilename    string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotTitle = r.FormValue("title")
		gotTags = r.FormValue("tags")

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotFile, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"_id":"new","title":"hello","image":"/uploads/x.png"}`)
	}))
	defer srv.Close()

	client := restapi.NewClient(srv.URL, newSession(t, ""))
	gw := restapi.NewGateway(client, blogsDescriptor())

	payload := domain.Record{
		"title": "hello",
		"tags":  []string{"a", "b"},
		domain.AttachmentKey: &domain.Attachment{
			Field:    "image",
			Filename: "x.png",
			Content:  []byte("png-bytes"),
		},
	}

	created, err := gw.Create(context.Background(), payload)
	require.NoError(t, err)

	assert.Contains(t, gotContentType, "multipart/form-data")
	assert.Equal(t, "hello", gotTitle)
	// array fields travel JSON-stringified, matching the backend's form parser
	assert.JSONEq(t, `["a","b"]`, gotTags)
	assert.Equal(t, "x.png", gotFilename)
	assert.Equal(t, []byte("png-bytes"), gotFile)

	assert.Equal(t, "new", created["_id"])
}

func TestCreateJSONStripsAttachmentKey(t *testing.T) {
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"new","question":"q"}`)
	}))
	defer srv.Close()

	desc := blogsDescriptor()
	desc.SupportsUpload = false

	client := restapi.NewClient(srv.URL, newSession(t, ""))
	gw := restapi.NewGateway(client, desc)

	_, err := gw.Create(context.Background(), domain.Record{
		"question":            "q",
		domain.AttachmentKey:  &domain.Attachment{Filename: "x.png"},
	})
	require.NoError(t, err)

	assert.NotContains(t, string(gotBody), domain.AttachmentKey)
	assert.Contains(t, string(gotBody), `"question"`)
}

func TestBearerToken(t *testing.T) {
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	client := restapi.NewClient(srv.URL, newSession(t, "secret-token"))
	gw := restapi.NewGateway(client, blogsDescriptor())

	_, err := gw.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestUploadAsset(t *testing.T) {
	testCases := map[string]struct {
		body    string
		wantURL string
		wantErr bool
	}{
		"url key": {
			body:    `{"url":"/uploads/a.png"}`,
			wantURL: "/uploads/a.png",
		},
		"imageUrl key": {
			body:    `{"imageUrl":"/uploads/b.png"}`,
			wantURL: "/uploads/b.png",
		},
		"neither": {
			body:    `{"ok":true}`,
			wantErr: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/upload/image", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			client := restapi.NewClient(srv.URL, newSession(t, ""))
			gw := restapi.NewGateway(client, blogsDescriptor())

			url, err := gw.UploadAsset(context.Background(), "a.png", []byte("png"))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantURL, url)
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	// a server that is already gone
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := restapi.NewClient(srv.URL, newSession(t, ""))
	gw := restapi.NewGateway(client, blogsDescriptor())

	_, err := gw.List(context.Background())
	assert.True(t, errors.Is(err, resource.ErrUnavailable))
}
