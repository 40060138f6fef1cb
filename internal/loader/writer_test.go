package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphsink/internal/cypher"
	"graphsink/internal/domain"
)

type call struct {
	query string
	rows  int
}

// fakeRunner 记录调用，按 failures 计数返回错误。
type fakeRunner struct {
	calls    []call
	raw      []string
	failures int
	err      error
	rawErr   error
	// failWhen 返回 true 时本次调用失败，n 为已成功的调用数。
	failWhen func(query string, n int) bool
}

func (f *fakeRunner) RunWrite(_ context.Context, query string, params map[string]any) (Counters, error) {
	if f.failures > 0 {
		f.failures--
		return Counters{}, f.err
	}
	if f.failWhen != nil && f.failWhen(query, len(f.calls)) {
		return Counters{}, f.err
	}
	n := len(params[domain.EventsParam].([]any))
	f.calls = append(f.calls, call{query: query, rows: n})
	return Counters{NodesCreated: n, PropertiesSet: 2 * n}, nil
}

func (f *fakeRunner) RunRaw(_ context.Context, query string, _ map[string]any) error {
	if f.rawErr != nil {
		return f.rawErr
	}
	f.raw = append(f.raw, query)
	return nil
}

func rows(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{"i": i}
	}
	return out
}

func TestWriterApplyChunksInOrder(t *testing.T) {
	runner := &fakeRunner{}
	w := NewWriter(runner, WriterConfig{BatchSize: 2}, nil)
	result := domain.IngestionEvent{Events: []domain.Event{
		{Query: "A", Events: rows(5)},
		{Query: "B", Events: nil},
		{Query: "C", Events: rows(1)},
	}}

	stats, err := w.Apply(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, Stats{Statements: 2, Batches: 4, Rows: 6, Counters: Counters{NodesCreated: 6, PropertiesSet: 12}}, stats)
	assert.Equal(t, []call{{"A", 2}, {"A", 2}, {"A", 1}, {"C", 1}}, runner.calls)
}

func TestWriterRetries(t *testing.T) {
	runner := &fakeRunner{failures: 2, err: errors.New("transient")}
	w := NewWriter(runner, WriterConfig{BatchSize: 10, Attempts: 3}, nil)

	stats, err := w.Apply(context.Background(), domain.IngestionEvent{Events: []domain.Event{{Query: "A", Events: rows(3)}}})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rows)
	assert.Len(t, runner.calls, 1)
}

func TestWriterStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	runner := &fakeRunner{failures: 10, err: boom}
	w := NewWriter(runner, WriterConfig{BatchSize: 10, Attempts: 2}, nil)

	stats, err := w.Apply(context.Background(), domain.IngestionEvent{Events: []domain.Event{
		{Query: "A", Events: rows(1)},
		{Query: "B", Events: rows(1)},
	}})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, stats.Rows)
	assert.Empty(t, runner.calls)
	assert.Equal(t, []domain.Event{{Query: "A", Events: rows(1)}, {Query: "B", Events: rows(1)}}, stats.Remaining)
}

func TestWriterRemainingSkipsCommittedChunks(t *testing.T) {
	boom := errors.New("constraint violated")
	runner := &fakeRunner{err: boom, failWhen: func(query string, n int) bool { return query == "A" && n == 1 }}
	w := NewWriter(runner, WriterConfig{BatchSize: 2, Strategy: "cud"}, nil)

	a := rows(5)
	stats, err := w.Apply(context.Background(), domain.IngestionEvent{Events: []domain.Event{
		{Query: "A", Events: a},
		{Query: "B", Events: rows(1)},
	}})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, stats.Batches)
	assert.Equal(t, 2, stats.Rows)
	assert.Zero(t, stats.Statements)
	assert.Equal(t, []domain.Event{{Query: "A", Events: a[2:]}, {Query: "B", Events: rows(1)}}, stats.Remaining)

	// 重放剩余部分不会重复已提交的分批
	runner.failWhen = nil
	stats, err = w.Apply(context.Background(), domain.IngestionEvent{Events: stats.Remaining})
	require.NoError(t, err)
	assert.Empty(t, stats.Remaining)
	assert.Equal(t, []call{{"A", 2}, {"A", 2}, {"A", 1}, {"B", 1}}, runner.calls)
}

func TestIndexManagerEnsure(t *testing.T) {
	runner := &fakeRunner{}
	m := NewIndexManager(runner, nil)

	err := m.Ensure(context.Background(), []cypher.Index{
		{Labels: []string{"A"}, Keys: []string{"id"}},
		{Labels: []string{"B"}, Keys: []string{"code"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE INDEX graphsink_A_id IF NOT EXISTS FOR (n:A) ON (n.id)",
		"CREATE INDEX graphsink_B_code IF NOT EXISTS FOR (n:B) ON (n.code)",
	}, runner.raw)
}

func TestIndexManagerError(t *testing.T) {
	boom := errors.New("boom")
	runner := &fakeRunner{rawErr: boom}
	err := NewIndexManager(runner, nil).Ensure(context.Background(), []cypher.Index{{Labels: []string{"A"}, Keys: []string{"id"}}})
	assert.ErrorIs(t, err, boom)
}
