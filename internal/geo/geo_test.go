package geo

import (
	"math"
	"testing"

	"github.com/example/carpool/internal/models"
)

func TestDistanceKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      models.Coordinate
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         models.Coordinate{Lat: 52.0907, Lon: 5.1214},
			b:         models.Coordinate{Lat: 52.0907, Lon: 5.1214},
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "Utrecht to Amsterdam (~35km)",
			a:         models.Coordinate{Lat: 52.0907, Lon: 5.1214},
			b:         models.Coordinate{Lat: 52.3676, Lon: 4.9041},
			wantKm:    34,
			tolerance: 3,
		},
		{
			name:      "New York to Los Angeles (~3944km)",
			a:         models.Coordinate{Lat: 40.7128, Lon: -74.0060},
			b:         models.Coordinate{Lat: 34.0522, Lon: -118.2437},
			wantKm:    3944,
			tolerance: 50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("DistanceKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	a := models.Coordinate{Lat: 52.0, Lon: 5.0}
	b := models.Coordinate{Lat: 53.0, Lon: 6.0}
	d1 := DistanceKm(a, b)
	d2 := DistanceKm(b, a)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("not symmetric: %f vs %f", d1, d2)
	}
}

func TestDistanceKm_TriangleInequality(t *testing.T) {
	pts := []models.Coordinate{
		{Lat: 52.0907, Lon: 5.1214},
		{Lat: 52.3676, Lon: 4.9041},
		{Lat: 51.9225, Lon: 4.4792},
		{Lat: 50.8503, Lon: 4.3517},
	}
	for _, a := range pts {
		for _, b := range pts {
			for _, c := range pts {
				ac := DistanceKm(a, c)
				abbc := DistanceKm(a, b) + DistanceKm(b, c)
				if ac > abbc+1e-6 {
					t.Fatalf("triangle inequality violated: d(a,c)=%f > %f", ac, abbc)
				}
			}
		}
	}
}

func TestPointToSegment_Perpendicular(t *testing.T) {
	// segment runs due north along lon=5, point sits 0.01 deg east of its middle
	a := models.Coordinate{Lat: 52.0, Lon: 5.0}
	b := models.Coordinate{Lat: 52.2, Lon: 5.0}
	p := models.Coordinate{Lat: 52.1, Lon: 5.01}

	d, frac := PointToSegment(p, a, b)
	// 0.01 deg of longitude at 52N is roughly 685m
	if d < 500 || d > 900 {
		t.Errorf("perpendicular distance = %f m, want ~685", d)
	}
	if math.Abs(frac-0.5) > 0.05 {
		t.Errorf("projection fraction = %f, want ~0.5", frac)
	}
}

func TestPointToSegment_ClampsOffEnd(t *testing.T) {
	a := models.Coordinate{Lat: 52.0, Lon: 5.0}
	b := models.Coordinate{Lat: 52.1, Lon: 5.0}
	p := models.Coordinate{Lat: 52.3, Lon: 5.0} // beyond b

	_, frac := PointToSegment(p, a, b)
	if frac != 1 {
		t.Errorf("fraction = %f, want clamped to 1", frac)
	}
}

func TestPointToSegment_DegenerateSegment(t *testing.T) {
	a := models.Coordinate{Lat: 52.0, Lon: 5.0}
	p := models.Coordinate{Lat: 52.0, Lon: 5.0}
	d, frac := PointToSegment(p, a, a)
	if d != 0 || frac != 0 {
		t.Errorf("degenerate segment: d=%f frac=%f, want 0,0", d, frac)
	}
}

func TestProjectOntoRoute_ArcLengthOrdering(t *testing.T) {
	// straight route north along the equatorial meridian, waypoints every degree
	route := make([]models.Coordinate, 11)
	for i := range route {
		route[i] = models.Coordinate{Lat: 0, Lon: float64(i)}
	}

	pickup := models.Coordinate{Lat: 0.01, Lon: 5}
	dropoff := models.Coordinate{Lat: 0.01, Lon: 3}

	dPick, arcPick := ProjectOntoRoute(pickup, route)
	dDrop, arcDrop := ProjectOntoRoute(dropoff, route)

	// 0.01 deg of latitude is ~1.1km perpendicular offset
	if dPick < 900 || dPick > 1400 {
		t.Errorf("pickup perpendicular = %f m, want ~1100", dPick)
	}
	if dDrop < 900 || dDrop > 1400 {
		t.Errorf("dropoff perpendicular = %f m, want ~1100", dDrop)
	}
	// arc positions follow longitude: pickup ahead of dropoff
	if arcPick <= arcDrop {
		t.Errorf("arc(pickup)=%f should exceed arc(dropoff)=%f", arcPick, arcDrop)
	}
	// pickup should project near the 5-degree mark (~556km)
	if math.Abs(arcPick-556000) > 20000 {
		t.Errorf("arc(pickup) = %f m, want ~556000", arcPick)
	}
}

func TestProjectOntoRoute_EmptyAndSingle(t *testing.T) {
	p := models.Coordinate{Lat: 1, Lon: 1}
	if d, _ := ProjectOntoRoute(p, nil); !math.IsInf(d, 1) {
		t.Errorf("empty route: d=%f, want +Inf", d)
	}
	d, arc := ProjectOntoRoute(p, []models.Coordinate{{Lat: 1, Lon: 2}})
	if arc != 0 {
		t.Errorf("single point route: arc=%f, want 0", arc)
	}
	if d < 100000 || d > 130000 {
		t.Errorf("single point route: d=%f m, want ~111km", d)
	}
}
