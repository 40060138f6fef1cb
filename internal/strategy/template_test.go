package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphsink/internal/domain"
)

func TestTemplateMerge(t *testing.T) {
	s := NewTemplate("MERGE (n:Label {id: event.id}) SET n += event", nil)
	entities := []domain.Entity{
		{Value: map[string]any{"id": 1, "name": "a"}},
		{Key: map[string]any{"id": 2}},
		{Value: map[string]any{"id": 3}},
	}

	result := mustEvents(t, s, entities)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "UNWIND $events AS event MERGE (n:Label {id: event.id}) SET n += event", result.Events[0].Query)
	assert.Equal(t, []map[string]any{{"id": 1, "name": "a"}, {"id": 3}}, result.Events[0].Events)
	assert.Empty(t, result.InvalidEvents)
}

func TestTemplateNoRows(t *testing.T) {
	s := NewTemplate("CREATE (n)", nil)
	result := s.MergeNodeEvents([]domain.Entity{{Key: map[string]any{"id": 1}}})
	assert.Empty(t, result.Events)
	assert.NotNil(t, result.Events)
}

func TestTemplateRowErrors(t *testing.T) {
	boom := errors.New("boom")
	s := NewTemplate("CREATE (n)", func(e domain.Entity) (map[string]any, error) {
		if e.Value["fail"] == true {
			return nil, boom
		}
		return e.Value, nil
	})
	entities := values(map[string]any{"id": 1}, map[string]any{"fail": true})

	result := s.MergeNodeEvents(entities)
	require.Len(t, result.Events, 1)
	assert.Len(t, result.Events[0].Events, 1)
	require.Len(t, result.InvalidEvents, 1)
	assert.ErrorIs(t, result.InvalidEvents[0].Err, boom)
	assert.Equal(t, entities[1], result.InvalidEvents[0].Event)
	assert.Equal(t, map[string]any{"strategy": "template", "operation": "mergeNode", "index": 1}, result.InvalidEvents[0].Meta)
}

func TestExprRow(t *testing.T) {
	row, err := ExprRow(`value.deleted == true ? nil : {id: key.id, name: value.profile.name}`)
	require.NoError(t, err)

	got, err := row(domain.Entity{
		Key:   map[string]any{"id": 7},
		Value: map[string]any{"profile": map[string]any{"name": "neo"}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": 7, "name": "neo"}, got)

	got, err = row(domain.Entity{Key: map[string]any{"id": 7}, Value: map[string]any{"deleted": true}})
	require.NoError(t, err)
	assert.Nil(t, got)

	scalar, err := ExprRow(`key.id`)
	require.NoError(t, err)
	_, err = scalar(domain.Entity{Key: map[string]any{"id": 1}})
	assert.ErrorIs(t, err, ErrTemplateRow)

	_, err = ExprRow(`value.(`)
	assert.Error(t, err)
}
