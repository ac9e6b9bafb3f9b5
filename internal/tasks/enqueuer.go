package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"soumiSpace/internal/logging"
)

// PublishWindow 内的多次保存合并为一次发布，任务在窗口结束时执行。
const PublishWindow = 5 * time.Second

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// PublishEnqueuer 在保存成功后投递发布任务。
type PublishEnqueuer struct {
	client  taskEnqueuer
	withPDF bool
	now     func() time.Time
}

func NewPublishEnqueuer(client taskEnqueuer, withPDF bool) *PublishEnqueuer {
	return &PublishEnqueuer{client: client, withPDF: withPDF, now: time.Now}
}

// EnqueuePublish 投递 site:publish。同一窗口内的任务共享 TaskID，重复投递视为成功。
func (e *PublishEnqueuer) EnqueuePublish(ctx context.Context) error {
	correlationID := logging.CorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	task, err := NewSitePublishTask(correlationID, e.withPDF)
	if err != nil {
		return fmt.Errorf("build publish task: %w", err)
	}

	window := e.now().Truncate(PublishWindow)
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.TaskID(publishTaskID(window, e.withPDF)),
		asynq.ProcessAt(window.Add(PublishWindow)),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) && !errors.Is(err, asynq.ErrDuplicateTask) {
		return fmt.Errorf("enqueue publish task: %w", err)
	}
	return nil
}

func publishTaskID(window time.Time, withPDF bool) string {
	id := fmt.Sprintf("%s:%d", TypeSitePublish, window.Unix())
	if withPDF {
		id += ":pdf"
	}
	return id
}
