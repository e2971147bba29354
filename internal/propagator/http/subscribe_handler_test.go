package http

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	propagatorDomain "github.com/allisson/controlplane/internal/propagator/domain"
	propagatorUseCase "github.com/allisson/controlplane/internal/propagator/usecase"
)

// setupSubscribeTestServer starts a broker and an SSE endpoint backed by it.
func setupSubscribeTestServer(t *testing.T) (*httptest.Server, *propagatorUseCase.Broker) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := propagatorUseCase.NewBroker(100, 16, 64, logger)

	brokerCtx, brokerCancel := context.WithCancel(context.Background())
	brokerDone := make(chan struct{})
	go func() {
		defer close(brokerDone)
		_ = broker.Run(brokerCtx)
	}()
	t.Cleanup(func() {
		brokerCancel()
		<-brokerDone
	})

	handler := NewSubscribeHandler(broker, logger)
	router := gin.New()
	router.GET("/v1/subscribe", handler.SubscribeHandler)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server, broker
}

func newChangeEvent(key string, version uint64) *propagatorDomain.ChangeEvent {
	return &propagatorDomain.ChangeEvent{
		ID:        uuid.Must(uuid.NewV7()),
		Kind:      propagatorDomain.KindConfig,
		Key:       key,
		Version:   version,
		Payload:   []byte(`{"value":"30s"}`),
		CreatedAt: time.Now().UTC(),
	}
}

// waitForDispatch blocks until the broker has fanned out count events on the
// stream, using a probe subscription.
func waitForDispatch(
	t *testing.T,
	broker *propagatorUseCase.Broker,
	key string,
	count int,
) {
	t.Helper()

	probe := broker.Subscribe(propagatorDomain.KindConfig, key, 0)
	defer broker.Unsubscribe(probe)

	for i := 0; i < count; i++ {
		select {
		case <-probe.Events:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for event %d to be dispatched", i+1)
		}
	}
}

// readSSEDataLines reads SSE data lines from the stream until count change
// events arrived.
func readSSEDataLines(t *testing.T, body io.Reader, count int) []string {
	t.Helper()

	var dataLines []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data:"))
			if len(dataLines) == count {
				return dataLines
			}
		}
	}
	t.Fatalf("stream ended after %d of %d events: %v", len(dataLines), count, scanner.Err())
	return nil
}

func subscribeRequest(t *testing.T, server *httptest.Server, query string) *http.Response {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/subscribe?"+query, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func TestSubscribeHandler_StreamsChangeEvents(t *testing.T) {
	server, broker := setupSubscribeTestServer(t)

	require.NoError(t, broker.Publish(newChangeEvent("prod/db.timeout", 1)))
	require.NoError(t, broker.Publish(newChangeEvent("prod/db.timeout", 2)))
	waitForDispatch(t, broker, "prod/db.timeout", 2)

	resp := subscribeRequest(t, server, "kind=config&key=prod/db.timeout")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	dataLines := readSSEDataLines(t, resp.Body, 2)
	assert.Contains(t, dataLines[0], `"version":1`)
	assert.Contains(t, dataLines[0], `"kind":"config"`)
	assert.Contains(t, dataLines[0], `"key":"prod/db.timeout"`)
	assert.Contains(t, dataLines[1], `"version":2`)
}

func TestSubscribeHandler_SinceVersionSkipsAcknowledgedEvents(t *testing.T) {
	server, broker := setupSubscribeTestServer(t)

	require.NoError(t, broker.Publish(newChangeEvent("prod/db.timeout", 1)))
	require.NoError(t, broker.Publish(newChangeEvent("prod/db.timeout", 2)))
	waitForDispatch(t, broker, "prod/db.timeout", 2)

	resp := subscribeRequest(t, server, "kind=config&key=prod/db.timeout&since_version=1")

	dataLines := readSSEDataLines(t, resp.Body, 1)
	assert.Contains(t, dataLines[0], `"version":2`)
	assert.NotContains(t, dataLines[0], `"version":1`)
}

func TestSubscribeHandler_DeliversLiveEvents(t *testing.T) {
	server, broker := setupSubscribeTestServer(t)

	resp := subscribeRequest(t, server, "kind=secret&key=db/primary/password")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	event := newChangeEvent("db/primary/password", 3)
	event.Kind = propagatorDomain.KindSecret
	require.NoError(t, broker.Publish(event))

	dataLines := readSSEDataLines(t, resp.Body, 1)
	assert.Contains(t, dataLines[0], `"kind":"secret"`)
	assert.Contains(t, dataLines[0], `"version":3`)
}

func TestSubscribeHandler_ResyncWhenReplayWindowExceeded(t *testing.T) {
	server, _ := setupSubscribeTestServer(t)

	// Nothing is retained for this stream, so a resume from version 5 cannot
	// be replayed. The stream must open with a resync instruction instead of
	// silently delivering a partial replay.
	resp := subscribeRequest(t, server, "kind=config&key=prod/db.timeout&since_version=5")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	scanner := bufio.NewScanner(resp.Body)
	var eventName, data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") {
			eventName = strings.TrimPrefix(line, "event:")
		}
		if strings.HasPrefix(line, "data:") {
			data = strings.TrimPrefix(line, "data:")
			break
		}
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, "resync", eventName)
	assert.Contains(t, data, "replay window exceeded")
}

func TestSubscribeHandler_Validation(t *testing.T) {
	server, _ := setupSubscribeTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{name: "UnknownKind", query: "kind=widget&key=prod/db.timeout"},
		{name: "MissingKind", query: "key=prod/db.timeout"},
		{name: "MissingKey", query: "kind=config"},
		{name: "MalformedKey", query: "kind=config&key=prod//db.timeout"},
		{name: "NonNumericSinceVersion", query: "kind=config&key=prod/db.timeout&since_version=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := subscribeRequest(t, server, tt.query)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		})
	}
}
