package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyIngestionEventJSON(t *testing.T) {
	out, err := json.Marshal(Empty())
	require.NoError(t, err)
	assert.Equal(t, `{"events":[],"invalidEvents":[]}`, string(out))
}

func TestInvalidEventJSON(t *testing.T) {
	ie := InvalidEvent{Err: errors.New("missing op"), Event: map[string]any{"a": 1}}
	out, err := json.Marshal(ie)
	require.NoError(t, err)
	assert.Equal(t, `{"error":"missing op","event":{"a":1},"meta":{}}`, string(out))

	var back InvalidEvent
	require.NoError(t, json.Unmarshal(out, &back))
	assert.EqualError(t, back.Err, "missing op")
	assert.Equal(t, map[string]any{"a": float64(1)}, back.Event)

	out, err = json.Marshal(InvalidEvent{Event: "x", Meta: map[string]any{"index": 2}})
	require.NoError(t, err)
	assert.Equal(t, `{"event":"x","meta":{"index":2}}`, string(out))
}

func TestMergeAndRowCount(t *testing.T) {
	a := IngestionEvent{Events: []Event{{Query: "A", Events: []map[string]any{{}, {}}}}}
	b := IngestionEvent{
		Events:        []Event{{Query: "B", Events: []map[string]any{{}}}},
		InvalidEvents: []InvalidEvent{{Event: 1}},
	}
	merged := Merge(a, Empty(), b)
	require.Len(t, merged.Events, 2)
	assert.Equal(t, "A", merged.Events[0].Query)
	assert.Equal(t, "B", merged.Events[1].Query)
	assert.Len(t, merged.InvalidEvents, 1)
	assert.Equal(t, 3, merged.RowCount())
}

func TestEntityTombstone(t *testing.T) {
	assert.True(t, Entity{Key: map[string]any{"id": 1}}.IsTombstone())
	assert.False(t, Entity{Key: map[string]any{"id": 1}, Value: map[string]any{}}.IsTombstone())
	assert.False(t, Entity{}.IsTombstone())
}

func TestDecodeEntities(t *testing.T) {
	entities, err := DecodeEntities(strings.NewReader(`[
		{"key": null, "value": {"id": 1, "score": 1.5, "nested": {"n": 2}, "list": [3, "x"]}},
		{"key": {"id": 9007199254740993}, "value": null}
	]`))
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Nil(t, entities[0].Key)
	assert.Equal(t, map[string]any{
		"id":     int64(1),
		"score":  1.5,
		"nested": map[string]any{"n": int64(2)},
		"list":   []any{int64(3), "x"},
	}, entities[0].Value)
	assert.Equal(t, int64(9007199254740993), entities[1].Key["id"])
	assert.True(t, entities[1].IsTombstone())

	_, err = DecodeEntities(strings.NewReader(`{"key": 1}`))
	assert.Error(t, err)
}

func TestDecodeEntity(t *testing.T) {
	e, err := DecodeEntity([]byte(`{"value": {"type": "node", "ids": {"id": 7}}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(7)}, e.Value["ids"])

	_, err = DecodeEntity([]byte(`not json`))
	assert.Error(t, err)
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "A\x1fB", JoinLabels([]string{"A", "B"}))
	assert.Equal(t, "", JoinKeys(nil))
}
