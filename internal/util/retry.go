package util

import (
	"context"
	"time"
)

// Policy 描述重试次数与指数退避；MaxBackoff 为 0 表示不设上限。
type Policy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
	// OnRetry 在每次等待前调用，attempt 从 1 开始。
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Do 执行 fn 直到成功、次数耗尽或 ctx 结束；最后一次失败后不再等待。
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := max(p.Attempts, 1)
	wait := p.Backoff
	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = fn(ctx); err == nil || attempt == attempts {
			return err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
		if p.MaxBackoff > 0 && wait > p.MaxBackoff {
			wait = p.MaxBackoff
		}
	}
}
