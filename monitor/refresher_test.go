package monitor_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omni/bridge-explorer/entity"
	"github.com/omni/bridge-explorer/logging"
	"github.com/omni/bridge-explorer/monitor"
)

type fakeStore struct {
	mu      sync.Mutex
	loading bool
	size    int
	err     error
	reloads int
	merges  int
}

func (f *fakeStore) IsLoading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func (f *fakeStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size
}

func (f *fakeStore) Reload(context.Context) (*entity.Diff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Diff{Mode: entity.ReconcileModeReplace}, nil
}

func (f *fakeStore) Merge(context.Context) (*entity.Diff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merges++
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Diff{Mode: entity.ReconcileModeMerge}, nil
}

func (f *fakeStore) mergeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.merges
}

func TestRefresher_Tick(t *testing.T) {
	t.Parallel()

	failure := entity.NewTransportError("bridge_operation", errors.New("connection reset"))
	for _, test := range []struct {
		Name     string
		Store    *fakeStore
		Expected monitor.TickOutcome
		Reloads  int
		Merges   int
	}{
		{
			Name:     "skip while loading",
			Store:    &fakeStore{loading: true, size: 10},
			Expected: monitor.TickSkipped,
		},
		{
			Name:     "reload when empty",
			Store:    &fakeStore{},
			Expected: monitor.TickReplaced,
			Reloads:  1,
		},
		{
			Name:     "merge when populated",
			Store:    &fakeStore{size: 3},
			Expected: monitor.TickMerged,
			Merges:   1,
		},
		{
			Name:     "failed merge",
			Store:    &fakeStore{size: 3, err: failure},
			Expected: monitor.TickFailed,
			Merges:   1,
		},
		{
			Name:     "superseded merge",
			Store:    &fakeStore{size: 3, err: entity.ErrSuperseded},
			Expected: monitor.TickSkipped,
			Merges:   1,
		},
		{
			Name:     "store became busy",
			Store:    &fakeStore{size: 3, err: fmt.Errorf("merge: %w", entity.ErrBusy)},
			Expected: monitor.TickSkipped,
			Merges:   1,
		},
		{
			Name:     "busy while empty",
			Store:    &fakeStore{err: fmt.Errorf("replace: %w", entity.ErrBusy)},
			Expected: monitor.TickSkipped,
			Reloads:  1,
		},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			r := monitor.NewRefresher(test.Store, time.Hour, logging.Discard())
			require.Equal(t, test.Expected, r.Tick(context.Background()))
			require.Equal(t, test.Reloads, test.Store.reloads)
			require.Equal(t, test.Merges, test.Store.merges)
		})
	}
}

func TestRefresher_StartStop(t *testing.T) {
	t.Parallel()

	s := &fakeStore{size: 1, err: errors.New("indexer unavailable")}
	r := monitor.NewRefresher(s, 5*time.Millisecond, logging.Discard())
	require.False(t, r.IsRunning())
	require.False(t, r.Stop())

	require.True(t, r.Start(context.Background()))
	require.False(t, r.Start(context.Background()))
	require.True(t, r.IsRunning())

	// Failed ticks do not stop the timer.
	require.Eventually(t, func() bool {
		return s.mergeCount() >= 3
	}, 5*time.Second, 5*time.Millisecond)

	require.True(t, r.Stop())
	require.False(t, r.IsRunning())
	stopped := s.mergeCount()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, stopped, s.mergeCount())

	require.True(t, r.Start(context.Background()))
	require.True(t, r.Stop())
}

func TestRefresher_StopsWithParentContext(t *testing.T) {
	t.Parallel()

	s := &fakeStore{size: 1}
	r := monitor.NewRefresher(s, 5*time.Millisecond, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, r.Start(ctx))
	require.Eventually(t, func() bool {
		return s.mergeCount() >= 1
	}, 5*time.Second, 5*time.Millisecond)
	cancel()

	// The handle still reports running until stopped explicitly.
	require.True(t, r.IsRunning())
	require.True(t, r.Stop())
}
