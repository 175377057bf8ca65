package ctan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	http2 "github.com/wolfi-dev/setup-texlive/pkg/http"
)

func TestClient_Package(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pkg/texlive":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"texlive","version":{"number":"2026","date":""},"texlive":"texlive"}`))
		case "/pkg/amsmath":
			_, _ = w.Write([]byte(`{"id":"amsmath","texlive":"amsmath"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := New(WithBaseURL(server.URL+"/"), WithHTTPClient(server.Client()), WithRetries(0, time.Millisecond))

	pkg, err := c.Package(context.Background(), "texlive")
	require.NoError(t, err)
	require.NotNil(t, pkg.Version)
	assert.Equal(t, "2026", pkg.Version.Number)
	assert.Equal(t, "texlive", pkg.TeXLive)

	release, err := c.TeXLiveRelease(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026", release)

	pkg, err = c.Package(context.Background(), "amsmath")
	require.NoError(t, err)
	assert.Nil(t, pkg.Version)

	_, err = c.Package(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, http2.ErrStatus)
}

func TestClient_Retries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"version":{"number":"2025"}}`))
	}))
	defer server.Close()

	c := New(WithBaseURL(server.URL), WithHTTPClient(server.Client()), WithRetries(3, time.Millisecond))

	release, err := c.TeXLiveRelease(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025", release)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_NoVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"texlive":"texlive"}`))
	}))
	defer server.Close()

	c := New(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	_, err := c.TeXLiveRelease(context.Background())
	assert.Error(t, err)
}
