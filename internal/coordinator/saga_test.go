package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/food-delivery/internal/coordinator/sagalog"
)

type memLog struct {
	mu      sync.Mutex
	entries []sagalog.SagaLog
}

func (m *memLog) Save(_ context.Context, e *sagalog.SagaLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memLog) ListByOrder(_ context.Context, orderID string) ([]sagalog.SagaLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sagalog.SagaLog
	for _, e := range m.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memLog) statuses() []sagalog.Status {
	var out []sagalog.Status
	for _, e := range m.entries {
		out = append(out, e.Status)
	}
	return out
}

type fakeStep struct {
	name       string
	execErr    error
	compErr    error
	bestEffort bool
	trail      *[]string
}

func (s *fakeStep) Name() string     { return s.name }
func (s *fakeStep) BestEffort() bool { return s.bestEffort }
func (s *fakeStep) Execute(context.Context) error {
	*s.trail = append(*s.trail, "exec:"+s.name)
	return s.execErr
}
func (s *fakeStep) Compensate(context.Context) error {
	*s.trail = append(*s.trail, "comp:"+s.name)
	return s.compErr
}

func TestOrchestrator_AllStepsSucceed(t *testing.T) {
	var trail []string
	log := &memLog{}
	o := NewOrchestrator("o-1", []Step{
		&fakeStep{name: "a", trail: &trail},
		&fakeStep{name: "b", trail: &trail},
	}, log)

	res, err := o.Start(context.Background(), `{"k":"v"}`)
	require.NoError(t, err)
	assert.Equal(t, o.SagaID(), res.SagaID)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, []string{"exec:a", "exec:b"}, trail)
	assert.Equal(t, []sagalog.Status{
		sagalog.StatusStarted, sagalog.StatusStepDone, sagalog.StatusStepDone, sagalog.StatusCompleted,
	}, log.statuses())
	assert.Equal(t, `{"k":"v"}`, log.entries[0].Payload)
	assert.Equal(t, "o-1", log.entries[0].OrderID)
}

func TestOrchestrator_RequiredFailureCompensatesLIFO(t *testing.T) {
	var trail []string
	log := &memLog{}
	boom := errors.New("boom")
	o := NewOrchestrator("o-1", []Step{
		&fakeStep{name: "a", trail: &trail},
		&fakeStep{name: "b", trail: &trail, compErr: errors.New("stuck")},
		&fakeStep{name: "c", trail: &trail, execErr: boom},
		&fakeStep{name: "d", trail: &trail},
	}, log)

	_, err := o.Start(context.Background(), "")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"exec:a", "exec:b", "exec:c", "comp:b", "comp:a"}, trail)

	last := log.entries[len(log.entries)-1]
	assert.Equal(t, sagalog.StatusFailed, last.Status)
	assert.Equal(t, "c", last.CurrentStep)
	assert.Equal(t, []string{"step c failed: boom", "compensation of b failed: stuck"}, last.Errors())
}

func TestOrchestrator_BestEffortFailureContinues(t *testing.T) {
	var trail []string
	log := &memLog{}
	o := NewOrchestrator("o-1", []Step{
		&fakeStep{name: "a", trail: &trail},
		&fakeStep{name: "notify", trail: &trail, execErr: errors.New("peer down"), bestEffort: true},
		&fakeStep{name: "c", trail: &trail},
	}, log)

	res, err := o.Start(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"step notify failed: peer down"}, res.Skipped)
	assert.Equal(t, []string{"exec:a", "exec:notify", "exec:c"}, trail)
	assert.Contains(t, log.statuses(), sagalog.StatusStepSkipped)
	assert.Equal(t, sagalog.StatusCompleted, log.entries[len(log.entries)-1].Status)
}

func TestOrchestrator_NilLog(t *testing.T) {
	var trail []string
	o := NewOrchestrator("o-1", []Step{&fakeStep{name: "a", trail: &trail}}, nil)
	_, err := o.Start(context.Background(), "")
	require.NoError(t, err)
}
