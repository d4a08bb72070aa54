package mocks

import (
	"context"

	"fork-your-story/internal/video"

	"github.com/stretchr/testify/mock"
)

// MockVideoProvider is a mock type for the video.Provider type
type MockVideoProvider struct {
	mock.Mock
}

// Submit provides a mock function with given fields: ctx, req
func (_m *MockVideoProvider) Submit(ctx context.Context, req video.Request) (video.Handle, error) {
	ret := _m.Called(ctx, req)

	var r0 video.Handle
	if rf, ok := ret.Get(0).(func(context.Context, video.Request) video.Handle); ok {
		r0 = rf(ctx, req)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(video.Handle)
	}

	return r0, ret.Error(1)
}

// Status provides a mock function with given fields: ctx, h
func (_m *MockVideoProvider) Status(ctx context.Context, h video.Handle) (video.QueueStatus, error) {
	ret := _m.Called(ctx, h)

	var r0 video.QueueStatus
	if rf, ok := ret.Get(0).(func(context.Context, video.Handle) video.QueueStatus); ok {
		r0 = rf(ctx, h)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(video.QueueStatus)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, video.Handle) error); ok {
		r1 = rf(ctx, h)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Result provides a mock function with given fields: ctx, h
func (_m *MockVideoProvider) Result(ctx context.Context, h video.Handle) (string, error) {
	ret := _m.Called(ctx, h)

	var r0 string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}

	return r0, ret.Error(1)
}

// NewMockVideoProvider creates a new instance of MockVideoProvider and registers the expectation check on cleanup.
func NewMockVideoProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockVideoProvider {
	m := &MockVideoProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
