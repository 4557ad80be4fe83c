package srdapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"codex-manager/core/srdapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *srdapi.Client {
	return srdapi.NewClient(srdapi.Config{
		BaseURL:           baseURL,
		UserAgent:         "codex-manager-test",
		TimeoutSeconds:    5,
		MaxRetries:        2,
		BackoffBaseMillis: 1,
		MinIntervalMillis: 0,
	})
}

func TestListResources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/spells", r.URL.Path)
		assert.Equal(t, "codex-manager-test", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"count":2,"results":[{"index":"fireball","name":"Fireball","url":"/api/spells/fireball"},{"index":"shield","name":"Shield","url":"/api/spells/shield"}]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	refs, err := client.ListResources(context.Background(), "spells")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "fireball", refs[0].Key)
	assert.Equal(t, "Shield", refs[1].Name)
}

func TestFetchByKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/spells/fireball", r.URL.Path)
		w.Write([]byte(`{"index":"fireball","name":"Fireball","level":3}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	doc, err := client.FetchByKey(context.Background(), "spells", "fireball")
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":"fireball","name":"Fireball","level":3}`, string(doc))
}

func TestRetryOnTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"index":"wizard"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	doc, err := client.FetchByKey(context.Background(), "classes", "wizard")
	require.NoError(t, err)
	assert.Contains(t, string(doc), "wizard")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNoRetryOnNotFound(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.FetchByKey(context.Background(), "spells", "nope")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
