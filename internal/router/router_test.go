package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphsink/internal/app"
	"graphsink/internal/dlq"
	"graphsink/internal/domain"
	"graphsink/internal/strategy"
)

type fakeService struct {
	queued   []domain.Entity
	enqueErr error
	flushErr error
	limit    int
	purged   bool
}

func (f *fakeService) Enqueue(entities ...domain.Entity) error {
	if f.enqueErr != nil {
		return f.enqueErr
	}
	f.queued = append(f.queued, entities...)
	return nil
}

func (f *fakeService) Flush(context.Context) (app.Report, error) {
	if f.flushErr != nil {
		return app.Report{}, f.flushErr
	}
	return app.Report{BatchID: "b1", Entities: len(f.queued)}, nil
}

func (f *fakeService) Translate(entities []domain.Entity) (domain.IngestionEvent, error) {
	return strategy.Events(strategy.NewCUD(), entities)
}

func (f *fakeService) DeadLetters(limit int) ([]dlq.Record, error) {
	f.limit = limit
	return []dlq.Record{{Key: "dlq/b1/000000", BatchID: "b1"}}, nil
}

func (f *fakeService) PurgeDeadLetters() error {
	f.purged = true
	return nil
}

func (f *fakeService) Stats() app.Stats {
	return app.Stats{Pending: len(f.queued), Strategy: "cud"}
}

func serve(t *testing.T, svc SinkService, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	engine := NewEngine(NewSinkHandler(svc, nil), prometheus.NewRegistry())
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestEnqueue(t *testing.T) {
	svc := &fakeService{}
	w := serve(t, svc, http.MethodPost, "/api/v1/events", `[{"key":null,"value":{"type":"node","op":"create","properties":{"a":1}}}]`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"accepted":1,"pending":1}`, w.Body.String())
	require.Len(t, svc.queued, 1)
	assert.Equal(t, int64(1), svc.queued[0].Value["properties"].(map[string]any)["a"])
}

func TestEnqueueErrors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, serve(t, &fakeService{}, http.MethodPost, "/api/v1/events", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, &fakeService{}, http.MethodPost, "/api/v1/events", `[]`).Code)

	full := &fakeService{enqueErr: app.ErrBufferFull}
	assert.Equal(t, http.StatusTooManyRequests, serve(t, full, http.MethodPost, "/api/v1/events", `[{"value":{}}]`).Code)

	broken := &fakeService{enqueErr: errors.New("boom")}
	assert.Equal(t, http.StatusInternalServerError, serve(t, broken, http.MethodPost, "/api/v1/events", `[{"value":{}}]`).Code)
}

func TestTranslate(t *testing.T) {
	body := `[{"key":null,"value":{"op":"merge","properties":{"foo":"value","key":1},"ids":{"key":1,"otherKey":"foo"},"labels":["Foo","Bar"],"type":"node","detach":false}}]`
	w := serve(t, &fakeService{}, http.MethodPost, "/api/v1/translate", body)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Events []struct {
			Query  string           `json:"query"`
			Events []map[string]any `json:"events"`
		} `json:"events"`
		InvalidEvents []any `json:"invalidEvents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Events, 1)
	assert.Equal(t, "UNWIND $events AS event\nMERGE (n:Foo:Bar {key: event.ids.key, otherKey: event.ids.otherKey})\nSET n += event.properties", got.Events[0].Query)
	assert.NotNil(t, got.InvalidEvents)
	assert.Empty(t, got.InvalidEvents)
}

func TestFlush(t *testing.T) {
	w := serve(t, &fakeService{}, http.MethodPost, "/api/v1/flush", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"batchId":"b1","entities":0,"statements":0,"rows":0,"invalid":0,"counters":{"nodesCreated":0,"nodesDeleted":0,"relationshipsCreated":0,"relationshipsDeleted":0,"propertiesSet":0}}`, w.Body.String())

	w = serve(t, &fakeService{flushErr: errors.New("down")}, http.MethodPost, "/api/v1/flush", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDLQ(t *testing.T) {
	svc := &fakeService{}
	w := serve(t, svc, http.MethodGet, "/api/v1/dlq", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultDLQLimit, svc.limit)
	assert.Contains(t, w.Body.String(), `"batchId":"b1"`)

	serve(t, svc, http.MethodGet, "/api/v1/dlq?limit=5", "")
	assert.Equal(t, 5, svc.limit)

	assert.Equal(t, http.StatusBadRequest, serve(t, svc, http.MethodGet, "/api/v1/dlq?limit=abc", "").Code)

	assert.Equal(t, http.StatusNoContent, serve(t, svc, http.MethodDelete, "/api/v1/dlq", "").Code)
	assert.True(t, svc.purged)
}

func TestStatsAndMetrics(t *testing.T) {
	w := serve(t, &fakeService{}, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"strategy":"cud"`)

	w = serve(t, &fakeService{}, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
