package geo

import (
	"math"
	"math/rand"
	"testing"
)

func TestDistanceSymmetryAndZero(t *testing.T) {
	points := []Point{
		{52.1601, 4.4970},
		{52.1750, 4.5200},
		{52.1500, 4.4700},
		{0, 0},
	}

	for _, a := range points {
		if d := DistanceMeters(a, a); d > 1e-6 {
			t.Errorf("DistanceMeters(%v, %v) = %v, want 0", a, a, d)
		}
		for _, b := range points {
			ab := DistanceMeters(a, b)
			ba := DistanceMeters(b, a)
			if math.Abs(ab-ba) > 1e-6 {
				t.Errorf("distance not symmetric: %v vs %v", ab, ba)
			}
			if ab < 0 {
				t.Errorf("negative distance %v", ab)
			}
		}
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// Two points a block apart in Leiden; the scored round in a real game.
	a := Point{52.1601, 4.4970}
	b := Point{52.1605, 4.4975}

	d := DistanceMeters(a, b)
	if d < 40 || d > 80 {
		t.Fatalf("DistanceMeters = %v, want a few dozen meters", d)
	}
	if s := Score(d); s != 4994 {
		t.Errorf("Score(%v) = %d, want 4994", d, s)
	}
}

func TestScoreMapping(t *testing.T) {
	tests := []struct {
		distance float64
		want     int
	}{
		{0, 5000},
		{10, 4999},
		{2000, 4800},
		{49994, 1},
		{50000, 0},
		{80000, 0},
		{1e9, 0},
	}
	for _, tt := range tests {
		if got := Score(tt.distance); got != tt.want {
			t.Errorf("Score(%v) = %d, want %d", tt.distance, got, tt.want)
		}
	}

	// Monotonically non-increasing.
	prev := Score(0)
	for d := 0.0; d <= 60000; d += 97.3 {
		s := Score(d)
		if s > prev {
			t.Fatalf("score increased from %d to %d at distance %v", prev, s, d)
		}
		prev = s
	}
}

func TestSamplePointContainment(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	box := Box{North: 52.1750, South: 52.1500, East: 4.5200, West: 4.4700}

	for i := 0; i < 10000; i++ {
		p := SamplePoint(r, box)
		if p.Lat < box.South || p.Lat > box.North {
			t.Fatalf("sample %d latitude %v outside [%v, %v]", i, p.Lat, box.South, box.North)
		}
		if p.Lng < box.West || p.Lng > box.East {
			t.Fatalf("sample %d longitude %v outside [%v, %v]", i, p.Lng, box.West, box.East)
		}
	}
}

func TestBoxValidate(t *testing.T) {
	if err := PlayArea.Validate(); err != nil {
		t.Fatalf("play area invalid: %v", err)
	}
	if err := (Box{North: 1, South: 2, East: 2, West: 1}).Validate(); err == nil {
		t.Error("inverted latitudes accepted")
	}
	if err := (Box{North: 2, South: 1, East: 1, West: 2}).Validate(); err == nil {
		t.Error("inverted longitudes accepted")
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters float64
		want   string
	}{
		{62.5, "62m"},
		{999, "999m"},
		{1250, "1.25km"},
		{20000, "20.00km"},
	}
	for _, tt := range tests {
		if got := FormatDistance(tt.meters); got != tt.want {
			t.Errorf("FormatDistance(%v) = %q, want %q", tt.meters, got, tt.want)
		}
	}
}
