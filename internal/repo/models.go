package repo

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Taxonomia cubre zonas, ámbitos, servicios y financiaciones.
type Taxonomia struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Slug   string `json:"slug"`
}

// Subcategoria pertenece a un ámbito; el nombre es único dentro de él.
type Subcategoria struct {
	ID       int64  `json:"id"`
	AmbitoID int64  `json:"ambito_id"`
	Nombre   string `json:"nombre"`
	Slug     string `json:"slug"`
}

// Servicio añade los datos de icono usados por los marcadores.
type Servicio struct {
	Taxonomia
	IconoMediaID *int64  `json:"icono_media_id"`
	IconoSVG     *string `json:"icono_svg"`
	IconoClase   *string `json:"icono_clase,omitempty"`
}

// Entidad es una organización u oficina, geolocalizada o no.
type Entidad struct {
	ID          int64    `json:"id"`
	Nombre      string   `json:"nombre"`
	Slug        string   `json:"slug"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	ZonaID      *int64   `json:"zona_id"`
	Telefono    *string  `json:"telefono"`
	Email       *string  `json:"email"`
	Web         *string  `json:"web,omitempty"`
	Descripcion *string  `json:"descripcion,omitempty"`
	LogoURL     *string  `json:"logo_url"`
	LogoMediaID *int64   `json:"logo_media_id"`
	Direccion   string   `json:"direccion"`
	CP          *string  `json:"cp,omitempty"`
	Ciudad      *string  `json:"ciudad,omitempty"`
	Provincia   *string  `json:"provincia,omitempty"`
	Pais        *string  `json:"pais,omitempty"`
}

// NewEntidad valida los campos obligatorios y la invariante de coordenadas.
func NewEntidad(e Entidad) (Entidad, error) {
	e.Nombre = strings.TrimSpace(e.Nombre)
	if e.Nombre == "" {
		return e, errors.New("nombre obligatorio")
	}
	if e.Slug = Slugify(e.Slug); e.Slug == "" {
		e.Slug = Slugify(e.Nombre)
	}
	if (e.Lat == nil) != (e.Lng == nil) {
		return e, ErrCoordenadas
	}
	if e.Lat != nil {
		if math.IsNaN(*e.Lat) || *e.Lat < -90 || *e.Lat > 90 || math.IsNaN(*e.Lng) || *e.Lng < -180 || *e.Lng > 180 {
			return e, errors.New("coordenadas fuera de rango")
		}
	}
	return e, nil
}

// Coordinates permite aplicar el filtro de radio sobre entidades.
func (e Entidad) Coordinates() (float64, float64, bool) {
	if e.Lat == nil || e.Lng == nil {
		return 0, 0, false
	}
	return *e.Lat, *e.Lng, true
}

// EntidadDetalle agrega la zona y los recursos visibles de la ficha pública.
type EntidadDetalle struct {
	Entidad
	ZonaNombre  *string          `json:"zona_nombre"`
	Recursos    []RecursoResumen `json:"recursos"`
	MapsURL     string           `json:"maps_url"`
	WhatsAppURL string           `json:"whatsapp_url"`
}

// Contacto es una persona de contacto de un recurso; todos los campos son opcionales.
type Contacto struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Telefono string `json:"telefono"`
}

// Recurso es un programa o servicio ofrecido por una entidad.
type Recurso struct {
	ID               int64      `json:"id"`
	EntidadID        int64      `json:"entidad_id"`
	RecursoPrograma  string     `json:"recurso_programa"`
	Descripcion      *string    `json:"descripcion"`
	Objetivo         *string    `json:"objetivo"`
	Destinatarios    *string    `json:"destinatarios"`
	PeriodoEjecucion *string    `json:"periodo_ejecucion"`
	PeriodoInicio    *time.Time `json:"periodo_inicio"`
	PeriodoFin       *time.Time `json:"periodo_fin"`
	EntidadGestora   *string    `json:"entidad_gestora"`
	EntidadGestoraID *int64     `json:"entidad_gestora_id"`
	Financiacion     *string    `json:"financiacion"`
	FinanciacionID   *int64     `json:"financiacion_id"`
	Contacto         string     `json:"contacto"`
	Contactos        []Contacto `json:"contactos"`
	ServicioID       *int64     `json:"servicio_id"`
	AmbitoID         *int64     `json:"ambito_id"`
	SubcategoriaID   *int64     `json:"subcategoria_id"`
	Activo           bool       `json:"-"`
	UpdatedAt        time.Time  `json:"-"`
}

// NewRecurso valida los campos obligatorios antes de persistir.
func NewRecurso(r Recurso) (Recurso, error) {
	r.RecursoPrograma = strings.TrimSpace(r.RecursoPrograma)
	if r.EntidadID <= 0 {
		return r, errors.New("entidad obligatoria")
	}
	if r.RecursoPrograma == "" {
		return r, errors.New("recurso_programa obligatorio")
	}
	if r.PeriodoInicio != nil && r.PeriodoFin != nil && r.PeriodoFin.Before(*r.PeriodoInicio) {
		return r, errors.New("periodo_fin anterior a periodo_inicio")
	}
	return r, nil
}

// Visible aplica la política única de vigencia.
func (r Recurso) Visible(today time.Time) bool {
	return Visible(r.Activo, r.PeriodoFin, today)
}

// ContactoPlano resume la lista de contactos en una sola línea.
func ContactoPlano(contactos []Contacto) string {
	var out []string
	for _, c := range contactos {
		var parts []string
		for _, p := range []string{c.Nombre, c.Email, c.Telefono} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			out = append(out, strings.Join(parts, " - "))
		}
	}
	return strings.Join(out, " / ")
}

// RecursoResumen es la fila corta mostrada en la ficha de entidad.
type RecursoResumen struct {
	ID               int64   `json:"id"`
	RecursoPrograma  string  `json:"recurso_programa"`
	Descripcion      *string `json:"descripcion"`
	Objetivo         *string `json:"objetivo"`
	Destinatarios    *string `json:"destinatarios"`
	PeriodoEjecucion *string `json:"periodo_ejecucion"`
	ServicioID       *int64  `json:"servicio_id"`
	ServicioNombre   *string `json:"servicio_nombre"`
	IconoClase       *string `json:"icono_clase"`
	AmbitoNombre     *string `json:"ambito_nombre"`
}

// Filtros es la respuesta del catálogo de taxonomías públicas.
type Filtros struct {
	Zonas         []Taxonomia    `json:"zonas"`
	Ambitos       []Taxonomia    `json:"ambitos"`
	Subcategorias []Subcategoria `json:"subcategorias"`
	Servicios     []Servicio     `json:"servicios"`
}
