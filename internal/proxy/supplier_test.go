package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"shopee/catalog/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSupplier_NoProxies(t *testing.T) {
	s := NewSupplier(context.Background(), logging.Discard(), nil, "http://example.invalid/")

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "", s.Get())
}

func TestNewSupplier_KeepsWorkingProxies(t *testing.T) {
	// An http.Server answers absolute-form request URIs, which is what a client sends to a proxy
	var seen []string
	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.String())
		w.WriteHeader(http.StatusOK)
	}))
	defer working.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer failing.Close()

	s := NewSupplier(
		context.Background(),
		logging.Discard(),
		[]string{working.URL, failing.URL, "http://127.0.0.1:1"},
		"http://seller.example.invalid/edu/category-guide/",
	)

	require.Equal(t, 1, s.Len())
	assert.Equal(t, working.URL, s.Get())
	assert.Equal(t, working.URL, s.Get())
	require.Len(t, seen, 1)
	assert.Equal(t, "http://seller.example.invalid/edu/category-guide/", seen[0])
}

func TestSupplier_RoundRobin(t *testing.T) {
	s := &supplier{proxies: []string{"a", "b", "c"}}

	got := []string{s.Get(), s.Get(), s.Get(), s.Get()}
	assert.Equal(t, []string{"a", "b", "c", "a"}, got)
}
