// Package mocks provides test doubles for the googlemaps client.
package mocks

import (
	"context"

	googlemaps "github.com/neighborlens/neighborlens/pkg/googlemaps"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Geocode provides a mock function with given fields: ctx, address
func (_m *MockClient) Geocode(ctx context.Context, address string) (*googlemaps.GeocodeResult, error) {
	ret := _m.Called(ctx, address)

	if len(ret) == 0 {
		panic("no return value specified for Geocode")
	}

	var r0 *googlemaps.GeocodeResult
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*googlemaps.GeocodeResult, error)); ok {
		return rf(ctx, address)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *googlemaps.GeocodeResult); ok {
		r0 = rf(ctx, address)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*googlemaps.GeocodeResult)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, address)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ReverseGeocodePostal provides a mock function with given fields: ctx, lat, lng
func (_m *MockClient) ReverseGeocodePostal(ctx context.Context, lat float64, lng float64) (string, error) {
	ret := _m.Called(ctx, lat, lng)

	if len(ret) == 0 {
		panic("no return value specified for ReverseGeocodePostal")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, float64, float64) (string, error)); ok {
		return rf(ctx, lat, lng)
	}
	if rf, ok := ret.Get(0).(func(context.Context, float64, float64) string); ok {
		r0 = rf(ctx, lat, lng)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, float64, float64) error); ok {
		r1 = rf(ctx, lat, lng)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NearbySearch provides a mock function with given fields: ctx, lat, lng, radiusM
func (_m *MockClient) NearbySearch(ctx context.Context, lat float64, lng float64, radiusM int) ([]googlemaps.Place, error) {
	ret := _m.Called(ctx, lat, lng, radiusM)

	if len(ret) == 0 {
		panic("no return value specified for NearbySearch")
	}

	var r0 []googlemaps.Place
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, float64, float64, int) ([]googlemaps.Place, error)); ok {
		return rf(ctx, lat, lng, radiusM)
	}
	if rf, ok := ret.Get(0).(func(context.Context, float64, float64, int) []googlemaps.Place); ok {
		r0 = rf(ctx, lat, lng, radiusM)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]googlemaps.Place)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, float64, float64, int) error); ok {
		r1 = rf(ctx, lat, lng, radiusM)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// PlaceReviews provides a mock function with given fields: ctx, placeID
func (_m *MockClient) PlaceReviews(ctx context.Context, placeID string) ([]string, error) {
	ret := _m.Called(ctx, placeID)

	if len(ret) == 0 {
		panic("no return value specified for PlaceReviews")
	}

	var r0 []string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]string, error)); ok {
		return rf(ctx, placeID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []string); ok {
		r0 = rf(ctx, placeID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]string)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, placeID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
