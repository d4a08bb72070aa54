package mocks

import (
	"context"

	"fork-your-story/internal/ai"

	"github.com/stretchr/testify/mock"
)

// MockAIClient is a mock type for the ai.Client type
type MockAIClient struct {
	mock.Mock
}

// GenerateText provides a mock function with given fields: ctx, op, prompt, params
func (_m *MockAIClient) GenerateText(ctx context.Context, op string, prompt string, params ai.GenerationParams) (string, ai.UsageInfo, error) {
	ret := _m.Called(ctx, op, prompt, params)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, string, ai.GenerationParams) string); ok {
		r0 = rf(ctx, op, prompt, params)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}

	var r1 ai.UsageInfo
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(ai.UsageInfo)
	}

	var r2 error
	if rf, ok := ret.Get(2).(func(context.Context, string, string, ai.GenerationParams) error); ok {
		r2 = rf(ctx, op, prompt, params)
	} else {
		r2 = ret.Error(2)
	}

	return r0, r1, r2
}

// Model provides a mock function with given fields:
func (_m *MockAIClient) Model() string {
	ret := _m.Called()
	if ret.Get(0) == nil {
		return ""
	}
	return ret.Get(0).(string)
}

// NewMockAIClient creates a new instance of MockAIClient and registers the expectation check on cleanup.
func NewMockAIClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAIClient {
	m := &MockAIClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ ai.Client = (*MockAIClient)(nil)
