package websocket

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/wsframe/mux"
	"github.com/vitalvas/wsframe/muxhandlers"
)

func TestRegisterUpgradeEndpointRegistersRoute(t *testing.T) {
	router := mux.NewRouter()

	route := RegisterUpgradeEndpoint(router, "/ws", EndpointConfig{
		Upgrader:       &Upgrader{},
		ReceiverConfig: ReceiverConfig{MaxPayloadBytes: 1024},
	})
	require.NotNil(t, route)

	name := route.GetName()
	assert.Equal(t, "websocket.upgrade", name)

	methods, err := route.GetMethods()
	require.NoError(t, err)
	assert.Contains(t, methods, http.MethodGet)
}

func TestRegisterUpgradeEndpointRejectsNonUpgradeRequest(t *testing.T) {
	router := mux.NewRouter()

	RegisterUpgradeEndpoint(router, "/ws", EndpointConfig{
		Upgrader: &Upgrader{},
		ReceiverConfig: ReceiverConfig{
			MaxPayloadBytes: 1024,
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterUpgradeEndpointEnforcesOriginPolicy(t *testing.T) {
	router := mux.NewRouter()

	RegisterUpgradeEndpoint(router, "/ws", EndpointConfig{
		Upgrader:       &Upgrader{},
		ReceiverConfig: ReceiverConfig{MaxPayloadBytes: 1024},
		OriginPolicy: &muxhandlers.WSOriginConfig{
			AllowedOrigins: []string{"https://example.com"},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Origin", "https://evil.example")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
