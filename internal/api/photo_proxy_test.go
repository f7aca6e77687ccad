package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newProxyServer(t *testing.T) (*PhotoProxy, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottoken/getFile":
			if r.URL.Query().Get("file_id") != "file-ok" {
				fmt.Fprint(w, `{"ok":false}`)
				return
			}
			fmt.Fprint(w, `{"ok":true,"result":{"file_path":"photos/file_1.jpg"}}`)
		case "/file/bottoken/photos/file_1.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			fmt.Fprint(w, "jpegbytes")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	p := NewPhotoProxy("token", srv.Client())
	p.base = srv.URL
	return p, srv
}

func TestPhotoProxyFetch(t *testing.T) {
	p, _ := newProxyServer(t)

	img, err := p.Fetch(context.Background(), "file-ok")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(img.Data) != "jpegbytes" {
		t.Fatalf("data = %q", img.Data)
	}
	if img.ContentType != "image/jpeg" {
		t.Fatalf("content type = %q", img.ContentType)
	}
}

func TestPhotoProxyUnknownFile(t *testing.T) {
	p, _ := newProxyServer(t)

	if _, err := p.Fetch(context.Background(), "file-missing"); err == nil {
		t.Fatal("expected error for unknown file id")
	}
}

func TestPhotoProxyDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bottoken/getFile" {
			fmt.Fprint(w, `{"ok":true,"result":{"file_path":"photos/gone.jpg"}}`)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := NewPhotoProxy("token", srv.Client())
	p.base = srv.URL
	if _, err := p.Fetch(context.Background(), "file-ok"); err == nil {
		t.Fatal("expected error when the download 404s")
	}
}
