package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soumiSpace/internal/logging"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{}, f.err
}

func optionValue(opts []asynq.Option, typ asynq.OptionType) interface{} {
	for _, opt := range opts {
		if opt.Type() == typ {
			return opt.Value()
		}
	}
	return nil
}

func TestPublishEnqueuer(t *testing.T) {
	client := &fakeEnqueuer{}
	ctx := logging.WithCorrelationID(context.Background(), "req-42")
	require.NoError(t, NewPublishEnqueuer(client, true).EnqueuePublish(ctx))
	require.Len(t, client.tasks, 1)
	assert.Equal(t, TypeSitePublish, client.tasks[0].Type())

	var payload SitePublishPayload
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &payload))
	assert.True(t, payload.WithPDF)
	assert.Equal(t, "req-42", payload.CorrelationID)

	require.NoError(t, NewPublishEnqueuer(client, false).EnqueuePublish(context.Background()))
	require.NoError(t, json.Unmarshal(client.tasks[1].Payload(), &payload))
	assert.NotEmpty(t, payload.CorrelationID)
}

func TestPublishEnqueuer_CoalescesWithinWindow(t *testing.T) {
	client := &fakeEnqueuer{}
	enqueuer := NewPublishEnqueuer(client, false)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{time.Second, 3 * time.Second, PublishWindow + time.Second} {
		enqueuer.now = func() time.Time { return base.Add(offset) }
		require.NoError(t, enqueuer.EnqueuePublish(context.Background()))
	}

	ids := make([]interface{}, 0, len(client.opts))
	for _, opts := range client.opts {
		ids = append(ids, optionValue(opts, asynq.TaskIDOpt))
	}
	assert.Equal(t, ids[0], ids[1])
	assert.NotEqual(t, ids[1], ids[2])
	assert.Equal(t, base.Add(PublishWindow), optionValue(client.opts[0], asynq.ProcessAtOpt))
}

func TestPublishEnqueuer_DuplicateIsNotAnError(t *testing.T) {
	assert.NoError(t, NewPublishEnqueuer(&fakeEnqueuer{err: asynq.ErrTaskIDConflict}, false).EnqueuePublish(context.Background()))
	assert.NoError(t, NewPublishEnqueuer(&fakeEnqueuer{err: asynq.ErrDuplicateTask}, false).EnqueuePublish(context.Background()))
	assert.Error(t, NewPublishEnqueuer(&fakeEnqueuer{err: errors.New("redis down")}, false).EnqueuePublish(context.Background()))
}

func TestParseSitePublishPayload(t *testing.T) {
	task, err := NewSitePublishTask("c-1", true)
	require.NoError(t, err)
	payload, err := ParseSitePublishPayload(task)
	require.NoError(t, err)
	assert.Equal(t, SitePublishPayload{CorrelationID: "c-1", WithPDF: true}, payload)

	_, err = ParseSitePublishPayload(asynq.NewTask(TypeSitePublish, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	_, err = ParseSitePublishPayload(asynq.NewTask("pdf:generate", nil))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
