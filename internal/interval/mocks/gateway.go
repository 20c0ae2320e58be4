// Package mocks holds testify mocks for the interval persistence surface.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fakeyudi/pomo/internal/timer"
)

// MockGateway is a mock timer.Gateway.
type MockGateway struct {
	mock.Mock
}

// NewMockGateway creates a MockGateway whose expectations are asserted
// when the test ends.
func NewMockGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGateway {
	m := &MockGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Begin provides a mock function.
func (m *MockGateway) Begin(ctx context.Context, kind timer.Kind, start time.Time, plannedSeconds uint32) (int64, error) {
	ret := m.Called(ctx, kind, start, plannedSeconds)

	var id int64
	if rf, ok := ret.Get(0).(func(context.Context, timer.Kind, time.Time, uint32) int64); ok {
		id = rf(ctx, kind, start, plannedSeconds)
	} else {
		id = ret.Get(0).(int64)
	}
	return id, ret.Error(1)
}

// Finalize provides a mock function.
func (m *MockGateway) Finalize(ctx context.Context, id int64, end time.Time, actualSeconds uint32, outcome timer.Outcome) error {
	ret := m.Called(ctx, id, end, actualSeconds, outcome)
	return ret.Error(0)
}

var _ timer.Gateway = (*MockGateway)(nil)
