package clock

import (
	"fmt"
	"time"
)

// Clock es la única noción de "ahora" del sitio, siempre en su zona horaria.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New crea un reloj real en la zona indicada.
func New(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: time.Now}
}

// Load resuelve el nombre IANA de la zona horaria.
func Load(name string) (*Clock, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("zona horaria %q: %w", name, err)
	}
	return New(loc), nil
}

// Fixed devuelve un reloj detenido, útil en pruebas.
func Fixed(t time.Time) *Clock {
	return &Clock{loc: t.Location(), now: func() time.Time { return t }}
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today devuelve la medianoche local del día en curso.
func (c *Clock) Today() time.Time {
	n := c.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, c.loc)
}
