package attendance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"eventcheckin/internal/domain"
	"eventcheckin/internal/queue"
)

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	args := m.Called(ctx, id)
	evt, _ := args.Get(0).(*domain.Event)
	return evt, args.Error(1)
}

func (m *mockRegistry) PromoteIfUpcoming(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func TestReconciler_Run(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("PromoteIfUpcoming", mock.Anything, int64(3)).Return(nil).Twice()
	reg.On("PromoteIfUpcoming", mock.Anything, int64(4)).Return(errors.New("deadlock detected")).Once()

	ch := make(chan queue.Message, 4)
	ch <- queue.NewCheckIn(3)
	ch <- queue.Message{Type: "unknown", EventID: 9}
	ch <- queue.NewCheckIn(4)
	ch <- queue.NewCheckIn(3)
	close(ch)

	NewReconciler(reg, nil).Run(context.Background(), ch)
	reg.AssertExpectations(t)
	reg.AssertNotCalled(t, "PromoteIfUpcoming", mock.Anything, int64(9))
}

func TestReconciler_Handle_ReturnsError(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("PromoteIfUpcoming", mock.Anything, int64(4)).Return(errors.New("timeout"))

	err := NewReconciler(reg, nil).Handle(context.Background(), queue.NewCheckIn(4))
	assert.EqualError(t, err, "timeout")
}
