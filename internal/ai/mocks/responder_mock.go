package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dungeon-server/internal/ai"
)

// MockResponder is a mock type for the Responder type
type MockResponder struct {
	mock.Mock
}

// GenerateText provides a mock function with given fields: ctx, req
func (_m *MockResponder) GenerateText(ctx context.Context, req ai.Request) (string, ai.UsageInfo) {
	ret := _m.Called(ctx, req)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, ai.Request) string); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(string)
		}
	}

	var r1 ai.UsageInfo
	if rf, ok := ret.Get(1).(func(context.Context, ai.Request) ai.UsageInfo); ok {
		r1 = rf(ctx, req)
	} else {
		if ret.Get(1) != nil {
			r1 = ret.Get(1).(ai.UsageInfo)
		}
	}

	return r0, r1
}

// NewMockResponder creates a new instance of MockResponder. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockResponder(t interface {
	mock.TestingT
	Helper()
}) *MockResponder {
	m := &MockResponder{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ ai.Responder = (*MockResponder)(nil)
