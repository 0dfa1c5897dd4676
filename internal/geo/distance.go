package geo

import "math"

// EarthRadiusKm es el radio medio terrestre usado por la fórmula de haversine.
const EarthRadiusKm = 6371.0

// Point es una coordenada geográfica en grados.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Locatable expone las coordenadas de un elemento; ok=false si no está geolocalizado.
type Locatable interface {
	Coordinates() (lat, lng float64, ok bool)
}

// HaversineKm calcula la distancia ortodrómica entre dos puntos en kilómetros.
func HaversineKm(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// WithinRadius reduce el resultado rectangular a un círculo exacto alrededor de center.
// Los elementos sin coordenadas se descartan.
func WithinRadius[T Locatable](items []T, center Point, radiusKm float64) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		lat, lng, ok := item.Coordinates()
		if !ok {
			continue
		}
		if HaversineKm(center, Point{Lat: lat, Lng: lng}) <= radiusKm {
			out = append(out, item)
		}
	}
	return out
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
