package geo

import (
	"math"
	"math/rand"
	"testing"
)

var (
	malaga = Point{Lat: 36.7213, Lng: -4.4214}
	madrid = Point{Lat: 40.4168, Lng: -3.7038}
)

func TestParseBBox(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *BBox
	}{
		{"vacía", "", nil},
		{"válida", "-4.5,36.6,-4.3,36.8", &BBox{MinLng: -4.5, MinLat: 36.6, MaxLng: -4.3, MaxLat: 36.8}},
		{"espacios", " -4.5 , 36.6 ,-4.3, 36.8 ", &BBox{MinLng: -4.5, MinLat: 36.6, MaxLng: -4.3, MaxLat: 36.8}},
		{"tres campos", "1,2,3", nil},
		{"cinco campos", "1,2,3,4,5", nil},
		{"no numérica", "a,2,3,4", nil},
		{"nan", "NaN,2,3,4", nil},
		{"degenerada", "0,0,0,0", nil},
		{"degenerada decimal", "0.0,-0.0,0.000,0", nil},
		{"un cero no basta", "0,0,0,1", &BBox{MaxLat: 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseBBox(tc.raw)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
			if got != nil && *got != *tc.want {
				t.Fatalf("got %+v want %+v", *got, *tc.want)
			}
		})
	}
}

func TestBBoxContains(t *testing.T) {
	b := BBox{MinLng: -4.5, MinLat: 36.6, MaxLng: -4.3, MaxLat: 36.8}
	if !b.Contains(36.70, -4.42) {
		t.Fatal("expected inside")
	}
	if b.Contains(40.4, -3.7) {
		t.Fatal("expected outside")
	}
	if ParseBBox(b.String()) == nil {
		t.Fatal("String must round trip")
	}
}

func TestHaversine(t *testing.T) {
	if d := HaversineKm(malaga, malaga); d != 0 {
		t.Fatalf("self distance %f", d)
	}

	d := HaversineKm(malaga, madrid)
	if math.Abs(d-468) > 5 {
		t.Fatalf("málaga-madrid: %f", d)
	}

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := Point{Lat: r.Float64()*180 - 90, Lng: r.Float64()*360 - 180}
		b := Point{Lat: r.Float64()*180 - 90, Lng: r.Float64()*360 - 180}
		if math.Abs(HaversineKm(a, b)-HaversineKm(b, a)) > 1e-9 {
			t.Fatalf("asymmetric for %v %v", a, b)
		}
	}
}

type lugar struct {
	id       int
	lat, lng *float64
}

func (l lugar) Coordinates() (float64, float64, bool) {
	if l.lat == nil || l.lng == nil {
		return 0, 0, false
	}
	return *l.lat, *l.lng, true
}

func ptr(f float64) *float64 { return &f }

func TestWithinRadius(t *testing.T) {
	items := []lugar{
		{id: 1, lat: ptr(36.7213), lng: ptr(-4.4214)},
		{id: 2, lat: ptr(36.7300), lng: ptr(-4.4300)},
		{id: 3, lat: ptr(36.9000), lng: ptr(-4.4214)},
		{id: 4},
	}

	got := WithinRadius(items, malaga, 5)
	if len(got) != 2 || got[0].id != 1 || got[1].id != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestWithinRadiusSubset(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	box := BBox{MinLng: -4.6, MinLat: 36.6, MaxLng: -4.2, MaxLat: 36.9}
	var items []lugar
	for i := 0; i < 500; i++ {
		items = append(items, lugar{
			id:  i,
			lat: ptr(box.MinLat + r.Float64()*(box.MaxLat-box.MinLat)),
			lng: ptr(box.MinLng + r.Float64()*(box.MaxLng-box.MinLng)),
		})
	}

	for _, radius := range []float64{0, 1, 5, 12.5, 50} {
		got := WithinRadius(items, malaga, radius)
		seen := map[int]bool{}
		for _, it := range items {
			seen[it.id] = true
		}
		for _, it := range got {
			if !seen[it.id] {
				t.Fatalf("item %d not in input", it.id)
			}
			lat, lng, _ := it.Coordinates()
			if HaversineKm(malaga, Point{Lat: lat, Lng: lng}) > radius {
				t.Fatalf("item %d outside radius %f", it.id, radius)
			}
		}
	}
}
