package texto

import (
	"fmt"
	"strings"
	"time"
)

var meses = map[string]string{
	"enero":      "January",
	"febrero":    "February",
	"marzo":      "March",
	"abril":      "April",
	"mayo":       "May",
	"junio":      "June",
	"julio":      "July",
	"agosto":     "August",
	"septiembre": "September",
	"setiembre":  "September",
	"octubre":    "October",
	"noviembre":  "November",
	"diciembre":  "December",
}

var nombresMes = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
	"agosto", "septiembre", "octubre", "noviembre", "diciembre"}

var diasSemana = map[string]bool{
	"lunes": true, "martes": true, "miércoles": true, "miercoles": true, "jueves": true,
	"viernes": true, "sábado": true, "sabado": true, "domingo": true,
}

// conectores que no aportan nada al parseo
var conectores = map[string]bool{"de": true, "del": true, "a": true, "las": true, "la": true, "horas": true, "hrs": true, "h": true, "h.": true}

var layoutsFecha = []string{"2 January 2006 15:04", "2 January 2006"}

// ParseFecha interpreta fechas como "jueves, 15 de enero de 2026 10:00h" en
// la zona indicada. Devuelve ok=false si no reconoce el formato.
func ParseFecha(text string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	clean := strings.ToLower(NormalizeSpace(text))
	if clean == "" {
		return time.Time{}, false
	}
	clean = strings.NewReplacer(",", " ", "/", " ").Replace(clean)

	tokens := make([]string, 0, 6)
	for i, tok := range strings.Fields(clean) {
		if i == 0 && diasSemana[tok] {
			continue
		}
		if conectores[tok] {
			continue
		}
		if en, ok := meses[tok]; ok {
			tok = en
		}
		tok = stripHora(tok)
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}

	candidate := strings.Join(tokens, " ")
	for _, layout := range layoutsFecha {
		if t, err := time.ParseInLocation(layout, candidate, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// stripHora quita la marca de hora final ("10:00h", "10:00h.").
func stripHora(tok string) string {
	if !strings.Contains(tok, ":") {
		return tok
	}
	tok = strings.TrimSuffix(tok, ".")
	return strings.TrimSuffix(tok, "h")
}

// FormatFecha escribe la fecha larga en español: "15 de enero de 2026".
func FormatFecha(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), nombresMes[t.Month()-1], t.Year())
}
