package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestClientPostSendsJSONAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in widget
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(widget{ID: "w-1", Name: in.Name})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", WithToken("secret"))
	var out widget
	require.NoError(t, c.Post(context.Background(), "/items", widget{Name: "ring"}, &out))
	assert.Equal(t, widget{ID: "w-1", Name: "ring"}, out)
}

func TestClientPostRequestHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "order-7-1", r.Header.Get("Idempotency-Key"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.Post(context.Background(), "/orders", widget{Name: "bangle"}, nil, WithHeader("Idempotency-Key", "order-7-1")))
}

func TestClientSurfacesServerReason(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"Supplier is inactive"}`, "Supplier is inactive"},
		{"error field", `{"error":"duplicate invoice number"}`, "duplicate invoice number"},
		{"plain text", "bad gateway\n", "bad gateway"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewClient(srv.URL).Get(context.Background(), "/x", nil)
			var remoteErr *Error
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, http.StatusUnprocessableEntity, remoteErr.Status)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, WithTimeout(20*time.Millisecond)).Ping(context.Background())
	require.Error(t, err)
	var remoteErr *Error
	assert.False(t, errors.As(err, &remoteErr))
}

func TestListAcceptsBareAndEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bare", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"a"},{"id":"b"}]`))
	})
	mux.HandleFunc("/wrapped", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"c"}]}`))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := NewClient(srv.URL)

	bare, err := List[widget](context.Background(), c, "/bare")
	require.NoError(t, err)
	assert.Len(t, bare, 2)

	wrapped, err := List[widget](context.Background(), c, "/wrapped")
	require.NoError(t, err)
	require.Len(t, wrapped, 1)
	assert.Equal(t, "c", wrapped[0].ID)

	empty, err := List[widget](context.Background(), c, "/empty")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
