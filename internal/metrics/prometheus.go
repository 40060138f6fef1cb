package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EntitiesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "graphsink_entities_total",
		Help: "已接收的 entity 数",
	})

	StatementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "graphsink_statements_total",
		Help: "已执行的语句批次数，按策略区分",
	}, []string{"strategy"})

	RowsWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "graphsink_rows_written_total",
		Help: "已写入的参数行数",
	})

	InvalidEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "graphsink_invalid_events_total",
		Help: "被拒绝的输入行数",
	}, []string{"operation"})

	FlushDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "graphsink_flush_duration_seconds",
		Help:    "单次 flush 耗时",
		Buckets: prometheus.DefBuckets,
	})

	FlushErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "graphsink_flush_errors_total",
		Help: "flush 失败次数",
	})

	AbandonedBatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "graphsink_abandoned_batches_total",
		Help: "重试耗尽后转入死信的批次数",
	})
)

// MustRegister 注册指标，可在 main 中调用。
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(EntitiesTotal, StatementsTotal, RowsWritten, InvalidEvents, FlushDuration, FlushErrors, AbandonedBatches)
}
