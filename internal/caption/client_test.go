package caption

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"imagevault/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaption_Success(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(response{Caption: "  a red apple on a table  "})
	}))
	defer srv.Close()

	c := New(srv.URL, 0, logger.Nop())
	caption, ok := c.Caption(context.Background(), []byte{0x89, 0x50, 0x4e, 0x47})

	assert.True(t, ok)
	assert.Equal(t, "a red apple on a table", caption)
	assert.Equal(t, "clip", got.Model)
	assert.Contains(t, got.Image, "data:image/png;base64,")
}

func TestCaption_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, 0, logger.Nop())
	caption, ok := c.Caption(context.Background(), []byte("img"))

	assert.False(t, ok)
	assert.Empty(t, caption)
}

func TestCaption_EmptyCaption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(response{Caption: "   "})
	}))
	defer srv.Close()

	c := New(srv.URL, 0, logger.Nop())
	_, ok := c.Caption(context.Background(), []byte("img"))

	assert.False(t, ok)
}

func TestCaption_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, 0, logger.Nop())
	_, ok := c.Caption(context.Background(), []byte("img"))

	assert.False(t, ok)
}

func TestCaption_UnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, 0, logger.Nop())
	_, ok := c.Caption(context.Background(), []byte("img"))

	assert.False(t, ok)
}

func TestCaption_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(response{Caption: "too late"})
	}))
	defer srv.Close()

	c := New(srv.URL, 10*time.Millisecond, logger.Nop())
	_, ok := c.Caption(context.Background(), []byte("img"))

	assert.False(t, ok)
}

func TestCaption_NoEndpoint(t *testing.T) {
	c := New("", 0, logger.Nop())
	_, ok := c.Caption(context.Background(), []byte("img"))

	assert.False(t, ok)
}

func TestCaption_EmptyImage(t *testing.T) {
	c := New("http://localhost:1", 0, logger.Nop())
	_, ok := c.Caption(context.Background(), nil)

	assert.False(t, ok)
}
