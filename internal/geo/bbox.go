package geo

import (
	"math"
	"strconv"
	"strings"
)

// BBox es un rectángulo de longitud/latitud usado como prefiltro espacial.
type BBox struct {
	MinLng float64 `json:"minLng"`
	MinLat float64 `json:"minLat"`
	MaxLng float64 `json:"maxLng"`
	MaxLat float64 `json:"maxLat"`
}

// ParseBBox interpreta "minLng,minLat,maxLng,maxLat".
// Devuelve nil si la cadena está vacía, mal formada o es la caja degenerada 0,0,0,0.
func ParseBBox(raw string) *BBox {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil
	}

	var vals [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		vals[i] = f
	}

	box := BBox{MinLng: vals[0], MinLat: vals[1], MaxLng: vals[2], MaxLat: vals[3]}
	if box.MinLng == 0 && box.MinLat == 0 && box.MaxLng == 0 && box.MaxLat == 0 {
		return nil
	}
	return &box
}

// Contains indica si el punto cae dentro del rectángulo (bordes incluidos).
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// String vuelve al formato de entrada.
func (b BBox) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return f(b.MinLng) + "," + f(b.MinLat) + "," + f(b.MaxLng) + "," + f(b.MaxLat)
}
