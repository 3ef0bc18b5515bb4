package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLocateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","city":"Paris","country":"France"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 2*time.Second, zap.NewNop())
	if got := client.Locate(context.Background(), "1.2.3.4"); got != "Paris" {
		t.Errorf("expected Paris, got %q", got)
	}
}

func TestLocateEmptyCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 2*time.Second, zap.NewNop())
	if got := client.Locate(context.Background(), "127.0.0.1"); got != UnknownLocation {
		t.Errorf("expected %q, got %q", UnknownLocation, got)
	}
}

func TestLocateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 2*time.Second, zap.NewNop())
	if got := client.Locate(context.Background(), "1.2.3.4"); got != UnknownLocation {
		t.Errorf("expected %q, got %q", UnknownLocation, got)
	}
}

func TestLocateInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 2*time.Second, zap.NewNop())
	if got := client.Locate(context.Background(), "1.2.3.4"); got != UnknownLocation {
		t.Errorf("expected %q, got %q", UnknownLocation, got)
	}
}

func TestLocateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{"status":"success","city":"Paris"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 50*time.Millisecond, zap.NewNop())
	start := time.Now()
	got := client.Locate(context.Background(), "1.2.3.4")
	if got != UnknownLocation {
		t.Errorf("expected %q on timeout, got %q", UnknownLocation, got)
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("lookup did not respect its timeout, took %v", elapsed)
	}
}

func TestLocateContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 2*time.Second, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if got := client.Locate(ctx, "1.2.3.4"); got != UnknownLocation {
		t.Errorf("expected %q on cancelled context, got %q", UnknownLocation, got)
	}
}
