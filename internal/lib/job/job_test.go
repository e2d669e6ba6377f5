package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/deppfellow/civil-registry/internal/errs"
	"github.com/deppfellow/civil-registry/internal/lib/postal"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWarmer struct {
	mock.Mock
}

func (m *mockWarmer) Lookup(ctx context.Context, raw string) (*postal.Result, error) {
	args := m.Called(ctx, raw)
	r, _ := args.Get(0).(*postal.Result)
	return r, args.Error(1)
}

func newTestJobService(warmer PostalWarmer) *JobService {
	logger := zerolog.Nop()
	j := &JobService{logger: &logger}
	j.InitHandlers(warmer)
	return j
}

func TestNewPostalWarmTask(t *testing.T) {
	task, err := NewPostalWarmTask("01001000")
	require.NoError(t, err)

	assert.Equal(t, TaskPostalWarm, task.Type())

	var p PostalWarmPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "01001000", p.PostalCode)
}

func TestHandlePostalWarmTask(t *testing.T) {
	task, err := NewPostalWarmTask("01001000")
	require.NoError(t, err)

	t.Run("looks the code up", func(t *testing.T) {
		warmer := &mockWarmer{}
		warmer.On("Lookup", mock.Anything, "01001000").Return(&postal.Result{City: "São Paulo"}, nil).Once()

		require.NoError(t, newTestJobService(warmer).handlePostalWarmTask(context.Background(), task))
		warmer.AssertExpectations(t)
	})

	t.Run("unknown codes are not retried", func(t *testing.T) {
		warmer := &mockWarmer{}
		warmer.On("Lookup", mock.Anything, "01001000").Return(nil, errs.NewPostalCodeNotFoundError("01001000"))

		err := newTestJobService(warmer).handlePostalWarmTask(context.Background(), task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("directory failures are retried", func(t *testing.T) {
		warmer := &mockWarmer{}
		warmer.On("Lookup", mock.Anything, "01001000").Return(nil, errs.NewPostalLookupFailedError("timeout"))

		err := newTestJobService(warmer).handlePostalWarmTask(context.Background(), task)
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("malformed payload is not retried", func(t *testing.T) {
		err := newTestJobService(&mockWarmer{}).handlePostalWarmTask(context.Background(), asynq.NewTask(TaskPostalWarm, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestStartRequiresHandlers(t *testing.T) {
	logger := zerolog.Nop()
	assert.Error(t, (&JobService{logger: &logger}).Start())
}
