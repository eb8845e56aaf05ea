package downloader

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smugmirror/pkg/logger"
)

func TestRunPreservesSubmissionOrder(t *testing.T) {
	jobs := make([]int, 20)
	for i := range jobs {
		jobs[i] = i
	}

	results := Run(context.Background(), 4, jobs, func(ctx context.Context, n int) (string, error) {
		// later jobs finish first
		time.Sleep(time.Duration(20-n) * time.Millisecond)
		return fmt.Sprintf("job-%d", n), nil
	}, logger.NewNopLogger())

	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, i, r.Job)
		assert.Equal(t, fmt.Sprintf("job-%d", i), r.Value)
		assert.True(t, r.Ran)
		assert.NoError(t, r.Err)
	}
}

func TestRunFailuresAreLocal(t *testing.T) {
	boom := errors.New("boom")
	var processed int32

	results := Run(context.Background(), 3, []int{1, 2, 3, 4, 5, 6}, func(ctx context.Context, n int) (int, error) {
		atomic.AddInt32(&processed, 1)
		if n%2 == 0 {
			return 0, boom
		}
		return n * 10, nil
	}, logger.NewNopLogger())

	assert.Equal(t, int32(6), atomic.LoadInt32(&processed))
	for _, r := range results {
		if r.Job%2 == 0 {
			assert.ErrorIs(t, r.Err, boom)
		} else {
			assert.NoError(t, r.Err)
			assert.Equal(t, r.Job*10, r.Value)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	var active, peak int32

	jobs := make([]int, 30)
	Run(context.Background(), 3, jobs, func(ctx context.Context, _ int) (struct{}, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return struct{}{}, nil
	}, logger.NewNopLogger())

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Equal(t, int32(0), atomic.LoadInt32(&active), "all workers drained before Run returns")
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var processed int32

	jobs := make([]int, 50)
	results := Run(ctx, 1, jobs, func(ctx context.Context, _ int) (int, error) {
		if atomic.AddInt32(&processed, 1) == 3 {
			cancel()
		}
		return 0, nil
	}, logger.NewNopLogger())

	require.Len(t, results, 50)
	assert.Less(t, int(atomic.LoadInt32(&processed)), 50)

	skipped := 0
	for _, r := range results {
		if !r.Ran {
			skipped++
			assert.ErrorIs(t, r.Err, context.Canceled)
		}
	}
	assert.Equal(t, 50-int(atomic.LoadInt32(&processed)), skipped)
}

func TestRunEmpty(t *testing.T) {
	results := Run(context.Background(), 2, nil, func(ctx context.Context, n int) (int, error) {
		t.Fatal("handler must not run")
		return 0, nil
	}, logger.NewNopLogger())
	assert.Empty(t, results)
}
