package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewCoordinateRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name     string
		lat, lon float64
	}{
		{"lat too high", 90.01, 0},
		{"lat too low", -90.01, 0},
		{"lon too high", 0, 180.01},
		{"lon too low", 0, -180.01},
		{"NaN lat", math.NaN(), 0},
		{"NaN lon", 0, math.NaN()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCoordinate(tc.lat, tc.lon); !errors.Is(err, ErrInvalidCoordinate) {
				t.Fatalf("want ErrInvalidCoordinate, got %v", err)
			}
		})
	}
}

func TestNewCoordinateAcceptsBoundary(t *testing.T) {
	for _, c := range [][2]float64{{90, 180}, {-90, -180}, {0, 0}, {52.0907, 5.1214}} {
		if _, err := NewCoordinate(c[0], c[1]); err != nil {
			t.Fatalf("(%f,%f): unexpected error %v", c[0], c[1], err)
		}
	}
}

func TestOfferValidate(t *testing.T) {
	valid := RouteOffer{
		ID:          "o1",
		Origin:      Coordinate{Lat: 52, Lon: 5},
		Destination: Coordinate{Lat: 52.4, Lon: 4.9},
		Departure:   time.Now(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missingDest := valid
	missingDest.Destination = Coordinate{}
	if err := missingDest.Validate(); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("want ErrInsufficientData, got %v", err)
	}

	missingDeparture := valid
	missingDeparture.Departure = time.Time{}
	if err := missingDeparture.Validate(); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("want ErrInsufficientData, got %v", err)
	}
}
