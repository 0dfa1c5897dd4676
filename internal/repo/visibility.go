package repo

import (
	"fmt"
	"time"
)

// Visible es la única regla de vigencia de un recurso: activo y sin fin o con
// fin en hoy o después. Solo se comparan fechas de calendario.
func Visible(activo bool, periodoFin *time.Time, today time.Time) bool {
	if !activo {
		return false
	}
	if periodoFin == nil {
		return true
	}
	return !civil(*periodoFin).Before(civil(today))
}

// VisibleSQL devuelve el mismo predicado para un alias de tabla de recursos;
// param es el marcador posicional que recibe DateParam(today).
func VisibleSQL(alias, param string) string {
	return fmt.Sprintf("%[1]s.activo AND (%[1]s.periodo_fin IS NULL OR %[1]s.periodo_fin >= %[2]s::date)", alias, param)
}

// DateParam serializa el día local para comparar con columnas DATE.
func DateParam(today time.Time) string {
	return today.Format("2006-01-02")
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
