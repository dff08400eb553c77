package camunda

import (
	"errors"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	apperrors "sentiment-aura/internal/common/errors"
	"sentiment-aura/internal/common/logger"
	"sentiment-aura/internal/common/metrics"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"rpc error: code = PermissionDenied", false},
		{"job not found", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(errors.New(tt.msg)))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		code apperrors.ErrorCode
	}{
		{"connection refused", apperrors.ErrCodeServiceUnavailable},
		{"context deadline exceeded", apperrors.ErrCodeServiceUnavailable},
		{"permission denied", apperrors.ErrCodeConfiguration},
		{"something odd", apperrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := mapZeebeError(errors.New(tt.msg), "connect localhost:26500", 3)
			assert.True(t, apperrors.IsCode(err, tt.code), "got %v", err)
			assert.Contains(t, apperrors.Normalize(err).Details, "after 3 attempts")
		})
	}
}

type recordingHandler struct {
	calls int
	err   error
	seen  float64
}

func (r *recordingHandler) Handle(_ worker.JobClient, _ entities.Job) error {
	r.calls++
	r.seen = testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues("test-task"))
	return r.err
}

func TestWrapHandler_TracksActiveJobs(t *testing.T) {
	h := &recordingHandler{err: errors.New("boom")}
	fn := wrapHandler("test-task", h, logger.NewTestLogger(t))

	fn(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42}})

	assert.Equal(t, 1, h.calls)
	assert.Equal(t, 1.0, h.seen)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues("test-task")))
}
