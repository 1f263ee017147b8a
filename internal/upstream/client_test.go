package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeason(t *testing.T) {
	type seen struct{ path, key string }
	reqs := make(chan seen, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- seen{r.URL.Path, r.Header.Get("X-API-KEY")}
		w.Write([]byte(`{"season": 70, "entries": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/v1/", "secret")
	body, err := c.Season(context.Background(), "70")
	require.NoError(t, err)
	got := <-reqs
	assert.Equal(t, "/api/v1/guildRaid/70", got.path)
	assert.Equal(t, "secret", got.key)
	assert.JSONEq(t, `{"season": 70, "entries": []}`, string(body))

	_, err = c.Season(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/guildRaid", (<-reqs).path)
}

func TestSeason_Errors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusForbidden)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad")
	_, err := c.Season(context.Background(), "70")
	assert.ErrorIs(t, err, ErrUnauthorized)

	status.Store(http.StatusBadGateway)
	_, err = c.Season(context.Background(), "70")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestSeason_CanceledContext(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "k")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Season(ctx, "70")
	assert.Error(t, err)
}
