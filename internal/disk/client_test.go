package disk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		Token:      "test-token",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
}

func TestExists(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "OAuth test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/resources", r.URL.Path)
		switch r.URL.Query().Get("path") {
		case "disk:/Badges":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"path":"disk:/Badges","type":"dir"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"DiskNotFoundError","description":"no such resource"}`))
		}
	}))

	ok, err := c.Exists(context.Background(), "disk:/Badges")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Exists(context.Background(), "disk:/Missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExistsServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"UnauthorizedError","description":"bad token"}`))
	}))

	_, err := c.Exists(context.Background(), "disk:/Badges")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UnauthorizedError")
}

func TestMkdir(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		switch r.URL.Query().Get("path") {
		case "disk:/Badges/2026-08-31":
			w.WriteHeader(http.StatusCreated)
		case "disk:/Badges/existing":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"DiskPathPointsToExistentDirectoryError","description":"already exists"}`))
		default:
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"DiskPathDoesntExistsError","description":"parent missing"}`))
		}
	}))

	require.NoError(t, c.Mkdir(context.Background(), "disk:/Badges/2026-08-31"))

	err := c.Mkdir(context.Background(), "disk:/Badges/existing")
	require.ErrorIs(t, err, ErrExists)

	err = c.Mkdir(context.Background(), "disk:/Nowhere/sub")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExists)
}

func TestUpload(t *testing.T) {
	var uploaded []byte
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/resources/upload", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("overwrite"))
		if r.URL.Query().Get("path") == "disk:/Badges/taken.jpg" {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"DiskResourceAlreadyExistsError","description":"name taken"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"href": srvURL + "/upload-target"})
	})
	mux.HandleFunc("/upload-target", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		uploaded = body
		w.WriteHeader(http.StatusCreated)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL
	c := NewClient(Options{Token: "test-token", BaseURL: srv.URL, HTTPClient: srv.Client()})

	local := filepath.Join(t.TempDir(), "badge.jpg")
	require.NoError(t, os.WriteFile(local, []byte("jpeg-bytes"), 0o644))

	require.NoError(t, c.Upload(context.Background(), local, "disk:/Badges/badge.jpg"))
	assert.Equal(t, []byte("jpeg-bytes"), uploaded)

	err := c.Upload(context.Background(), local, "disk:/Badges/taken.jpg")
	require.ErrorIs(t, err, ErrExists)
}

func TestDownload(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/resources/download", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("path") == "disk:/Badges/missing.jpg" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"DiskNotFoundError","description":"no such resource"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"href": srvURL + "/download-target"})
	})
	mux.HandleFunc("/download-target", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("jpeg-bytes"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL
	c := NewClient(Options{Token: "test-token", BaseURL: srv.URL, HTTPClient: srv.Client()})

	local := filepath.Join(t.TempDir(), "badge.jpg")
	require.NoError(t, c.Download(context.Background(), "disk:/Badges/badge.jpg", local))
	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	err = c.Download(context.Background(), "disk:/Badges/missing.jpg", local)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListPaginates(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		type item struct {
			Name string `json:"name"`
			Path string `json:"path"`
			Type string `json:"type"`
		}
		page := struct {
			Embedded struct {
				Items []item `json:"items"`
				Total int    `json:"total"`
			} `json:"_embedded"`
		}{}
		page.Embedded.Total = 2
		switch r.URL.Query().Get("offset") {
		case "0":
			page.Embedded.Items = []item{{Name: "2026-08-30", Path: "disk:/Badges/2026-08-30", Type: "dir"}}
		case "200":
			page.Embedded.Items = []item{{Name: "readme.txt", Path: "disk:/Badges/readme.txt", Type: "file"}}
		}
		_ = json.NewEncoder(w).Encode(page)
	}))

	items, err := c.List(context.Background(), "disk:/Badges")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, Resource{Path: "disk:/Badges/2026-08-30", Name: "2026-08-30", Type: TypeDir}, items[0])
	assert.Equal(t, Resource{Path: "disk:/Badges/readme.txt", Name: "readme.txt", Type: TypeFile}, items[1])
}

func TestListNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"DiskNotFoundError","description":"no such resource"}`))
	}))

	_, err := c.List(context.Background(), "disk:/Gone")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListEmptyDirectory(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"_embedded":{"items":[],"total":0}}`))
	}))

	items, err := c.List(context.Background(), "disk:/Badges/2026-08-31")
	require.NoError(t, err)
	assert.Empty(t, items)
}
