package texto

import (
	"math/rand/v2"
)

// Paleta son los colores de acento de las tarjetas sin imagen.
var Paleta = []string{"#ff9500", "#da3ab3", "#da1800", "#00b3e3", "#ff6b00", "#00299f", "#ff4338"}

// ColorAleatorio elige un color de la paleta; no es estable entre llamadas.
func ColorAleatorio() string {
	return Paleta[rand.IntN(len(Paleta))]
}
