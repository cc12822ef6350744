package util

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/config"
)

func setConfig(t *testing.T, demo bool, sourceURL, natsURL string) {
	t.Helper()
	oldDemo, oldSource, oldNats, oldWait := config.Demo, config.SourceURL,
		config.NatsURL, config.WaitForServices
	t.Cleanup(func() {
		config.Demo, config.SourceURL = oldDemo, oldSource
		config.NatsURL, config.WaitForServices = oldNats, oldWait
	})
	config.Demo = demo
	config.SourceURL = sourceURL
	config.NatsURL = natsURL
	config.WaitForServices = "600ms"
}

func TestWaitForRequiredServices(t *testing.T) {
	src := httptest.NewServer(http.NotFoundHandler())
	defer src.Close()
	gone := httptest.NewServer(http.NotFoundHandler())
	gone.Close()
	natsListener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer natsListener.Close()
	natsURL := "nats://" + natsListener.Addr().String()

	tests := []struct {
		name      string
		demo      bool
		sourceURL string
		natsURL   string
		wantErr   bool
	}{
		{"source reachable", false, src.URL, "", false},
		{"source and nats reachable", false, src.URL, natsURL, false},
		{"source unreachable", false, gone.URL, "", true},
		{"demo ignores source", true, gone.URL, "", false},
		{"nats unreachable", true, "", "nats://" + gone.Listener.Addr().String(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setConfig(t, tt.demo, tt.sourceURL, tt.natsURL)
			err := WaitForRequiredServices(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConnectNatsWithoutURL(t *testing.T) {
	setConfig(t, true, "", "")
	conn, err := ConnectNats()
	assert.NoError(t, err)
	assert.Nil(t, conn)
}
