package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rental-contracts/internal/contract"
	"github.com/iliyamo/rental-contracts/internal/queue"
	"github.com/iliyamo/rental-contracts/internal/service"
)

type fakeContracts struct {
	ids      []string
	listErr  error
	failFor  string
	moved    []string
	gotToday time.Time
}

func (f *fakeContracts) ExpiredIDs(_ context.Context, today time.Time) ([]string, error) {
	f.gotToday = today
	return f.ids, f.listErr
}

func (f *fakeContracts) Transition(_ context.Context, id string, actor uint64, to contract.Status, note string) (contract.Status, error) {
	if id == f.failFor {
		return contract.StatusActive, errors.New("deadlock")
	}
	if actor != 0 || to != contract.StatusExpired || note != ExpiryNote {
		return "", errors.New("unexpected transition")
	}
	f.moved = append(f.moved, id)
	return contract.StatusActive, nil
}

type events struct {
	service.NopPublisher
	changed []queue.ContractStatusChangedEvent
}

func (e *events) PublishContractStatusChanged(_ context.Context, ev queue.ContractStatusChangedEvent) error {
	e.changed = append(e.changed, ev)
	return nil
}

type droppedCache struct{ ids []string }

func (d *droppedCache) InvalidateContract(_ context.Context, id string) error {
	d.ids = append(d.ids, id)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSweepExpired(t *testing.T) {
	repo := &fakeContracts{ids: []string{"c-1", "c-2", "c-3"}, failFor: "c-2"}
	ev := &events{}
	cache := &droppedCache{}
	s := NewScheduler(repo, ev, cache, quietLogger(), "@daily")
	s.now = func() time.Time { return time.Date(2025, time.March, 15, 1, 0, 0, 0, time.UTC) }

	n, err := s.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"c-1", "c-3"}, repo.moved)
	require.Len(t, ev.changed, 2)
	assert.Equal(t, "active", ev.changed[0].From)
	assert.Equal(t, "expired", ev.changed[0].To)
	assert.Equal(t, uint64(0), ev.changed[0].ActorID)
	assert.Equal(t, 15, repo.gotToday.Day())
	assert.Equal(t, []string{"c-1", "c-3"}, cache.ids)
}

func TestSweepExpiredListError(t *testing.T) {
	s := NewScheduler(&fakeContracts{listErr: errors.New("db down")}, &events{}, nil, quietLogger(), "@daily")
	_, err := s.SweepExpired(context.Background())
	assert.Error(t, err)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(&fakeContracts{}, &events{}, nil, quietLogger(), "every tuesday")
	assert.Error(t, s.Start())
	s.Stop()
}

func TestStartDisabledAndStop(t *testing.T) {
	s := NewScheduler(&fakeContracts{}, &events{}, nil, quietLogger(), "")
	require.NoError(t, s.Start())
	s.Stop()

	s = NewScheduler(&fakeContracts{}, &events{}, nil, quietLogger(), "@hourly")
	require.NoError(t, s.Start())
	assert.True(t, s.isRunning)
	s.Stop()
	assert.False(t, s.isRunning)
}
