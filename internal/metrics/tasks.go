package metrics

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "soumispace",
			Subsystem: "asynq",
			Name:      "tasks_processed_total",
			Help:      "已处理的任务数，按类型与结果区分。",
		},
		[]string{"task_type", "result"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "soumispace",
			Subsystem: "asynq",
			Name:      "task_duration_seconds",
			Help:      "任务处理耗时（秒）。",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"task_type"},
	)

	tasksInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "soumispace",
			Subsystem: "asynq",
			Name:      "tasks_in_progress",
			Help:      "正在处理的任务数。",
		},
		[]string{"task_type"},
	)
)

// AsynqMetricsMiddleware 包装任务处理器，记录结果与耗时。
func AsynqMetricsMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			taskType := task.Type()
			tasksInProgress.WithLabelValues(taskType).Inc()
			defer tasksInProgress.WithLabelValues(taskType).Dec()

			start := time.Now()
			err := next.ProcessTask(ctx, task)
			taskDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			tasksProcessed.WithLabelValues(taskType, resultLabel(err)).Inc()
			return err
		})
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
