package strategy

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"graphsink/internal/domain"
)

func assertGolden(t *testing.T, name string, result domain.IngestionEvent) {
	t.Helper()
	queries := make([]string, 0, len(result.Events))
	for _, ev := range result.Events {
		queries = append(queries, ev.Query)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(strings.Join(queries, "\n\n")+"\n"))
}

func values(rows ...map[string]any) []domain.Entity {
	out := make([]domain.Entity, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Entity{Value: r})
	}
	return out
}

func mustEvents(t *testing.T, s Strategy, entities []domain.Entity) domain.IngestionEvent {
	t.Helper()
	result, err := Events(s, entities)
	require.NoError(t, err)
	return result
}
