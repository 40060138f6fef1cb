//go:build integration

package loader_test

import (
	"context"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap/zaptest"

	"graphsink/internal/domain"
	"graphsink/internal/loader"
	"graphsink/internal/strategy"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestApplyAgainstNeo4j(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	cfg := loader.Config{
		URI:      env("GRAPHSINK_NEO4J_URI", "bolt://localhost:7687"),
		Username: env("GRAPHSINK_NEO4J_USER", "neo4j"),
		Password: env("GRAPHSINK_NEO4J_PASSWORD", "password"),
		Database: env("GRAPHSINK_NEO4J_DATABASE", "neo4j"),
	}
	client, err := loader.NewClient(ctx, cfg)
	if err != nil {
		t.Skipf("neo4j not available: %v", err)
	}
	defer client.Close(ctx)

	if _, err := client.RunWrite(ctx, "MATCH (n:GraphsinkIT) DETACH DELETE n", nil); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	conf := "(:GraphsinkIT{!from})-[:LINKS]->(:GraphsinkIT{!to})"
	st, err := strategy.FromConfig(strategy.Config{Strategy: strategy.KindRelationshipPattern, Pattern: conf})
	if err != nil {
		t.Fatalf("build strategy failed: %v", err)
	}
	if err := loader.NewIndexManager(client, zaptest.NewLogger(t)).Ensure(ctx, st.(strategy.Indexed).Indexes()); err != nil {
		t.Fatalf("ensure indexes failed: %v", err)
	}

	entities := []domain.Entity{
		{Value: map[string]any{"from": int64(1), "to": int64(2), "weight": int64(5)}},
		{Value: map[string]any{"from": int64(2), "to": int64(3)}},
		{Value: map[string]any{"from": int64(1), "to": int64(3)}},
	}
	writer := loader.NewWriter(client, loader.WriterConfig{BatchSize: 2}, zaptest.NewLogger(t))
	result, err := strategy.Events(st, entities)
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	stats, err := writer.Apply(ctx, result)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if stats.Rows != 3 || stats.Batches != 2 || stats.Counters.RelationshipsCreated != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		t.Fatalf("create driver failed: %v", err)
	}
	defer driver.Close(ctx)

	res, err := neo4j.ExecuteQuery(ctx, driver,
		"MATCH (:GraphsinkIT)-[r:LINKS]->(:GraphsinkIT) RETURN count(r) AS rels",
		nil, neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(cfg.Database))
	if err != nil {
		t.Fatalf("count relationships failed: %v", err)
	}
	rels, _, err := neo4j.GetRecordValue[int64](res.Records[0], "rels")
	if err != nil {
		t.Fatalf("read count failed: %v", err)
	}
	if rels != 3 {
		t.Fatalf("expected 3 relationships, got %d", rels)
	}
}
