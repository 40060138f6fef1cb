package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"graphsink/internal/app"
)

func TestSchedulerRunOnceSkipsOverlap(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	s := NewScheduler(app.Config{}, func(context.Context) (app.Report, error) {
		calls.Add(1)
		<-release
		return app.Report{}, nil
	}, nil)

	done := make(chan struct{})
	go func() {
		s.runOnce()
		close(done)
	}()
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	s.runOnce()
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	<-done
	s.runOnce()
	assert.Equal(t, int32(2), calls.Load())
}

func TestSchedulerLogsFailure(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewScheduler(app.Config{}, func(context.Context) (app.Report, error) {
		return app.Report{}, errors.New("boom")
	}, zap.New(core))

	s.runOnce()
	assert.Equal(t, 1, logs.FilterMessage("scheduled flush failed").Len())
}

func TestSchedulerSkipsAfterCancel(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(app.Config{}, func(context.Context) (app.Report, error) {
		calls.Add(1)
		return app.Report{}, nil
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	stop := s.Start(ctx)
	cancel()
	stop()

	s.runOnce()
	assert.Zero(t, calls.Load())
}

func TestSchedulerInvalidSpec(t *testing.T) {
	cfg := app.Config{}
	cfg.Sink.FlushCron = "not a cron"
	stop := NewScheduler(cfg, nil, nil).Start(context.Background())
	assert.NotNil(t, stop)
	stop()
}

func TestStatsLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewStatsLogger(app.Config{}, func() app.Stats {
		return app.Stats{Pending: 4, Retrying: 3, DeadLetters: 2, Strategy: "cud"}
	}, zap.New(core))

	h.logOnce()
	entries := logs.FilterMessage("sink stats").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, int64(4), fields["pending"])
		assert.Equal(t, int64(3), fields["retrying"])
		assert.Equal(t, int64(2), fields["dead_letters"])
		assert.Equal(t, "cud", fields["strategy"])
	}
}

func TestStatsLoggerStopsWithParent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewStatsLogger(app.Config{}, func() app.Stats { return app.Stats{} }, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	h.Start(ctx)
	assert.Equal(t, 1, logs.FilterMessage("job started").Len())

	cancel()
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("job stopped").Len() == 1
	}, time.Second, time.Millisecond)
}
