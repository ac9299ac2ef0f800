package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func TestClientDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/items/7", r.URL.Path)
		assert.Equal(t, "x", r.URL.Query().Get("q"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"item":{"name":"seven"}}}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL, WithBearerToken("secret"))
	require.NoError(t, err)

	var out struct {
		Item item `json:"item"`
	}
	err = client.Get(context.Background(), "/api/items/7", url.Values{"q": {"x"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "seven", out.Item.Name)
}

func TestClientKeepsBasePath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/ping", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL + "/v1/")
	require.NoError(t, err)
	require.NoError(t, client.Get(context.Background(), "api/ping", nil, nil))
}

func TestClientPostsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in item
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": in})
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	var out item
	require.NoError(t, client.Post(context.Background(), "/echo", item{Name: "ping"}, &out))
	assert.Equal(t, "ping", out.Name)
}

func TestClientNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Solution not found"}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	err = client.Get(context.Background(), "/missing", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Solution not found", UserMessage(err))
}

func TestClientUnsuccessfulEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"quota exceeded"}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	err = client.Get(context.Background(), "/x", nil, nil)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusOK, statusErr.StatusCode)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "quota exceeded", UserMessage(err))
}

func TestClientServerErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)

	err = client.Get(context.Background(), "/x", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "Bad Gateway", UserMessage(err))
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := New(base)
	require.NoError(t, err)

	err = client.Get(context.Background(), "/x", nil, nil)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "server unreachable", UserMessage(err))
}

func TestWithTokenCopies(t *testing.T) {
	client, err := New("http://localhost:5000", WithBearerToken("a"))
	require.NoError(t, err)

	other := client.WithToken("b")
	assert.Equal(t, "a", client.token)
	assert.Equal(t, "b", other.token)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
	_, err = New("ftp://example.com")
	assert.Error(t, err)
}

func TestUserMessageContext(t *testing.T) {
	assert.Equal(t, "request canceled", UserMessage(context.Canceled))
	assert.Equal(t, "request timed out", UserMessage(context.DeadlineExceeded))
	assert.Empty(t, UserMessage(nil))
}
