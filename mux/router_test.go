package mux

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRouter(t *testing.T) {
	r := NewRouter()
	require.NotNil(t, r)
	assert.Empty(t, r.routes)
}

func TestRouterServeHTTP(t *testing.T) {
	t.Run("dispatches to matched handler", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/hello", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "world")
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/hello", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "world", w.Body.String())
	})

	t.Run("404 for unknown path", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/hello", func(_ http.ResponseWriter, _ *http.Request) {})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("custom NotFoundHandler", func(t *testing.T) {
		r := NewRouter()
		r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("405 for wrong method", func(t *testing.T) {
		r := NewRouter()
		r.Handle("/hello", http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {})).Methods(http.MethodGet)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/hello", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("custom MethodNotAllowedHandler", func(t *testing.T) {
		r := NewRouter()
		r.Handle("/hello", http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {})).Methods(http.MethodGet)
		r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/hello", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("middleware runs outermost-registered-first", func(t *testing.T) {
		r := NewRouter()
		var order []string

		mw := func(name string) MiddlewareFunc {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}

		r.Use(mw("first"), mw("second"))
		r.HandleFunc("/hello", func(_ http.ResponseWriter, _ *http.Request) {
			order = append(order, "handler")
		})

		req := httptest.NewRequest(http.MethodGet, "/hello", nil)
		r.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, []string{"first", "second", "handler"}, order)
	})
}

func TestRouterHandleAndGet(t *testing.T) {
	r := NewRouter()
	r.Handle("/ws", http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {})).
		Methods(http.MethodGet).
		Name("websocket.upgrade")

	route := r.Get("websocket.upgrade")
	require.NotNil(t, route)
	assert.Equal(t, route, r.GetRoute("websocket.upgrade"))

	assert.Nil(t, r.Get("no-such-route"))
}

func TestRouterMatch(t *testing.T) {
	r := NewRouter()
	r.HandleFunc("/ws", func(_ http.ResponseWriter, _ *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	match := &RouteMatch{}
	require.True(t, r.Match(req, match))
	assert.NotNil(t, match.Route)
	assert.NotNil(t, match.Handler)
}
