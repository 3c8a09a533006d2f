// Package mocks provides test doubles for the gmaps client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/ntoujavaproject/store-strategist/internal/model"
	gmaps "github.com/ntoujavaproject/store-strategist/pkg/gmaps"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, facet, lat, lon, radiusM
func (_m *MockClient) Search(ctx context.Context, facet string, lat, lon, radiusM float64) (string, error) {
	ret := _m.Called(ctx, facet, lat, lon, radiusM)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string, float64, float64, float64) (string, error)); ok {
		return rf(ctx, facet, lat, lon, radiusM)
	}
	return ret.String(0), ret.Error(1)
}

// SearchByName provides a mock function with given fields: ctx, name
func (_m *MockClient) SearchByName(ctx context.Context, name string) (string, error) {
	ret := _m.Called(ctx, name)

	if len(ret) == 0 {
		panic("no return value specified for SearchByName")
	}

	return ret.String(0), ret.Error(1)
}

// ReviewPage provides a mock function with given fields: ctx, id, cursor, sort
func (_m *MockClient) ReviewPage(ctx context.Context, id, cursor string, sort model.SortMode) ([]byte, error) {
	ret := _m.Called(ctx, id, cursor, sort)

	if len(ret) == 0 {
		panic("no return value specified for ReviewPage")
	}

	var r0 []byte
	if ret.Get(0) != nil {
		switch v := ret.Get(0).(type) {
		case []byte:
			r0 = v
		case string:
			r0 = []byte(v)
		}
	}
	return r0, ret.Error(1)
}

// PlaceInfo provides a mock function with given fields: ctx, id
func (_m *MockClient) PlaceInfo(ctx context.Context, id string) (*gmaps.Place, error) {
	ret := _m.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for PlaceInfo")
	}

	var r0 *gmaps.Place
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*gmaps.Place)
	}
	return r0, ret.Error(1)
}

// NewMockClient creates a new instance of MockClient and registers cleanup
// that asserts expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
