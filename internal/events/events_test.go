package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockInserter struct {
	mock.Mock
}

func (m *mockInserter) InsertEvent(ctx context.Context, ev Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type failing struct{ err error }

func (f failing) Publish(context.Context, Event) error { return f.err }

func TestNew(t *testing.T) {
	id := uuid.New()
	ev := New(SlotCreated, id, map[string]any{"date": "2025-01-06"})

	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, SlotCreated, ev.Type)
	assert.Equal(t, id, ev.AggregateID)
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestMulti_PublishesToAllAndJoinsErrors(t *testing.T) {
	ctx := context.Background()
	ev := New(AppointmentCreated, uuid.New(), nil)

	ins := &mockInserter{}
	ins.On("InsertEvent", ctx, ev).Return(nil).Once()

	boom := errors.New("broker down")
	m := Multi{failing{err: boom}, NewRecorder(ins), NewLog(zap.NewNop()), Nop{}}

	err := m.Publish(ctx, ev)
	assert.ErrorIs(t, err, boom)
	ins.AssertExpectations(t)
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, Multi{}.Publish(context.Background(), New(SlotDeleted, uuid.New(), nil)))
}
