// Package mocks provides test doubles for the google client.
package mocks

import (
	"context"

	"github.com/sells-group/gmaps-contacts/internal/model"
	google "github.com/sells-group/gmaps-contacts/pkg/google"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Geocode provides a mock function with given fields: ctx, postalCode, country
func (_m *MockClient) Geocode(ctx context.Context, postalCode string, country string) (*google.Coordinates, error) {
	ret := _m.Called(ctx, postalCode, country)

	if len(ret) == 0 {
		panic("no return value specified for Geocode")
	}

	var r0 *google.Coordinates
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) (*google.Coordinates, error)); ok {
		return rf(ctx, postalCode, country)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, string) *google.Coordinates); ok {
		r0 = rf(ctx, postalCode, country)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*google.Coordinates)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, postalCode, country)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NearbySearch provides a mock function with given fields: ctx, placeType, at
func (_m *MockClient) NearbySearch(ctx context.Context, placeType string, at google.Coordinates) ([]string, error) {
	ret := _m.Called(ctx, placeType, at)

	if len(ret) == 0 {
		panic("no return value specified for NearbySearch")
	}

	var r0 []string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, google.Coordinates) ([]string, error)); ok {
		return rf(ctx, placeType, at)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, google.Coordinates) []string); ok {
		r0 = rf(ctx, placeType, at)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]string)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, google.Coordinates) error); ok {
		r1 = rf(ctx, placeType, at)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Details provides a mock function with given fields: ctx, placeID
func (_m *MockClient) Details(ctx context.Context, placeID string) (*model.Row, error) {
	ret := _m.Called(ctx, placeID)

	if len(ret) == 0 {
		panic("no return value specified for Details")
	}

	var r0 *model.Row
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*model.Row, error)); ok {
		return rf(ctx, placeID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *model.Row); ok {
		r0 = rf(ctx, placeID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.Row)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, placeID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
