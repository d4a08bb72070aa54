package mocks

import (
	"context"

	"fork-your-story/internal/messaging"

	"github.com/stretchr/testify/mock"
)

// MockStoryEventPublisher is a mock type for the messaging.StoryEventPublisher type
type MockStoryEventPublisher struct {
	mock.Mock
}

// PublishStoryAnalyzed provides a mock function with given fields: ctx, event
func (_m *MockStoryEventPublisher) PublishStoryAnalyzed(ctx context.Context, event messaging.StoryAnalyzedEvent) error {
	ret := _m.Called(ctx, event)
	return ret.Error(0)
}

// Close provides a mock function with given fields:
func (_m *MockStoryEventPublisher) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}

// NewMockStoryEventPublisher creates a new instance of MockStoryEventPublisher and registers the expectation check on cleanup.
func NewMockStoryEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStoryEventPublisher {
	m := &MockStoryEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ messaging.StoryEventPublisher = (*MockStoryEventPublisher)(nil)
