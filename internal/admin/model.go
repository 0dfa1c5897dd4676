package admin

import (
	"strings"
	"time"

	"github.com/arrabal/mapaderecursos/internal/repo"
)

// Tipo identifica una colección editable desde el panel.
type Tipo string

const (
	TipoZona         Tipo = "zonas"
	TipoAmbito       Tipo = "ambitos"
	TipoFinanciacion Tipo = "financiaciones"
	TipoServicio     Tipo = "servicios"
	TipoSubcategoria Tipo = "subcategorias"
	TipoEntidad      Tipo = "entidades"
	TipoRecurso      Tipo = "recursos"
)

// Taxonomias son los tipos que solo tienen nombre y slug.
var Taxonomias = []Tipo{TipoZona, TipoAmbito, TipoFinanciacion}

var tablas = map[Tipo]string{
	TipoZona:         "mdr_zonas",
	TipoAmbito:       "mdr_ambitos",
	TipoFinanciacion: "mdr_financiaciones",
	TipoServicio:     "mdr_servicios",
	TipoSubcategoria: "mdr_subcategorias",
	TipoEntidad:      "mdr_entidades",
	TipoRecurso:      "mdr_recursos",
}

// Tabla devuelve la tabla del tipo; solo los tipos conocidos son válidos.
func (t Tipo) Tabla() (string, bool) {
	tabla, ok := tablas[t]
	return tabla, ok
}

func (t Tipo) esTaxonomia() bool {
	for _, tx := range Taxonomias {
		if t == tx {
			return true
		}
	}
	return false
}

// Admin es un usuario del panel.
type Admin struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Nombre       string `json:"nombre"`
	PasswordHash string `json:"-"`
	Activo       bool   `json:"activo"`
}

// Auditoria es la fila que acompaña a cada escritura en mdr_logs.
type Auditoria struct {
	AdminID  int64
	Accion   string
	Objeto   string
	ObjetoID *int64
	Detalle  map[string]any
}

type TaxonomiaInput struct {
	Nombre string `json:"nombre" validate:"required,max=190"`
	Slug   string `json:"slug" validate:"omitempty,max=190"`
}

func (in TaxonomiaInput) taxonomia(id int64) repo.Taxonomia {
	t := repo.Taxonomia{ID: id, Nombre: strings.TrimSpace(in.Nombre), Slug: repo.Slugify(in.Slug)}
	if t.Slug == "" {
		t.Slug = repo.Slugify(t.Nombre)
	}
	return t
}

type ServicioInput struct {
	TaxonomiaInput
	IconoMediaID *int64  `json:"icono_media_id" validate:"omitempty,gt=0"`
	IconoSVG     *string `json:"icono_svg" validate:"omitempty,max=20000"`
	IconoClase   *string `json:"icono_clase" validate:"omitempty,max=120"`
}

type SubcategoriaInput struct {
	AmbitoID int64 `json:"ambito_id" validate:"required,gt=0"`
	TaxonomiaInput
}

type EntidadInput struct {
	Nombre      string   `json:"nombre" validate:"required,max=255"`
	Slug        string   `json:"slug" validate:"omitempty,max=190"`
	Lat         *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng         *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	ZonaID      *int64   `json:"zona_id" validate:"omitempty,gt=0"`
	Telefono    *string  `json:"telefono" validate:"omitempty,max=60"`
	Email       *string  `json:"email" validate:"omitempty,email"`
	Web         *string  `json:"web" validate:"omitempty,url"`
	Descripcion *string  `json:"descripcion" validate:"omitempty,max=10000"`
	LogoURL     *string  `json:"logo_url" validate:"omitempty,url"`
	LogoMediaID *int64   `json:"logo_media_id" validate:"omitempty,gt=0"`
	Direccion   string   `json:"direccion" validate:"max=255"`
	CP          *string  `json:"cp" validate:"omitempty,max=12"`
	Ciudad      *string  `json:"ciudad" validate:"omitempty,max=120"`
	Provincia   *string  `json:"provincia" validate:"omitempty,max=120"`
	Pais        *string  `json:"pais" validate:"omitempty,max=120"`
}

func (in EntidadInput) entidad(id int64) (repo.Entidad, error) {
	return repo.NewEntidad(repo.Entidad{
		ID:          id,
		Nombre:      in.Nombre,
		Slug:        in.Slug,
		Lat:         in.Lat,
		Lng:         in.Lng,
		ZonaID:      in.ZonaID,
		Telefono:    limpio(in.Telefono),
		Email:       limpio(in.Email),
		Web:         limpio(in.Web),
		Descripcion: in.Descripcion,
		LogoURL:     limpio(in.LogoURL),
		LogoMediaID: in.LogoMediaID,
		Direccion:   strings.TrimSpace(in.Direccion),
		CP:          limpio(in.CP),
		Ciudad:      limpio(in.Ciudad),
		Provincia:   limpio(in.Provincia),
		Pais:        limpio(in.Pais),
	})
}

type ContactoInput struct {
	Nombre   string `json:"nombre" validate:"max=120"`
	Email    string `json:"email" validate:"omitempty,email"`
	Telefono string `json:"telefono" validate:"max=60"`
}

type RecursoInput struct {
	EntidadID        int64           `json:"entidad_id" validate:"required,gt=0"`
	RecursoPrograma  string          `json:"recurso_programa" validate:"required,max=255"`
	Descripcion      *string         `json:"descripcion"`
	Objetivo         *string         `json:"objetivo"`
	Destinatarios    *string         `json:"destinatarios"`
	PeriodoEjecucion *string         `json:"periodo_ejecucion" validate:"omitempty,max=255"`
	PeriodoInicio    *string         `json:"periodo_inicio" validate:"omitempty,datetime=2006-01-02"`
	PeriodoFin       *string         `json:"periodo_fin" validate:"omitempty,datetime=2006-01-02"`
	EntidadGestora   *string         `json:"entidad_gestora" validate:"omitempty,max=255"`
	EntidadGestoraID *int64          `json:"entidad_gestora_id" validate:"omitempty,gt=0"`
	Financiacion     *string         `json:"financiacion" validate:"omitempty,max=255"`
	FinanciacionID   *int64          `json:"financiacion_id" validate:"omitempty,gt=0"`
	Contactos        []ContactoInput `json:"contactos" validate:"max=20,dive"`
	ServicioID       *int64          `json:"servicio_id" validate:"omitempty,gt=0"`
	AmbitoID         *int64          `json:"ambito_id" validate:"omitempty,gt=0"`
	SubcategoriaID   *int64          `json:"subcategoria_id" validate:"omitempty,gt=0"`
	Activo           *bool           `json:"activo"`
}

func (in RecursoInput) recurso(id int64) (repo.Recurso, error) {
	r := repo.Recurso{
		ID:               id,
		EntidadID:        in.EntidadID,
		RecursoPrograma:  in.RecursoPrograma,
		Descripcion:      in.Descripcion,
		Objetivo:         in.Objetivo,
		Destinatarios:    in.Destinatarios,
		PeriodoEjecucion: limpio(in.PeriodoEjecucion),
		PeriodoInicio:    dia(in.PeriodoInicio),
		PeriodoFin:       dia(in.PeriodoFin),
		EntidadGestora:   limpio(in.EntidadGestora),
		EntidadGestoraID: in.EntidadGestoraID,
		Financiacion:     limpio(in.Financiacion),
		FinanciacionID:   in.FinanciacionID,
		Contactos:        []repo.Contacto{},
		ServicioID:       in.ServicioID,
		AmbitoID:         in.AmbitoID,
		SubcategoriaID:   in.SubcategoriaID,
		Activo:           in.Activo == nil || *in.Activo,
	}
	for _, c := range in.Contactos {
		contacto := repo.Contacto{
			Nombre:   strings.TrimSpace(c.Nombre),
			Email:    strings.TrimSpace(c.Email),
			Telefono: strings.TrimSpace(c.Telefono),
		}
		if contacto != (repo.Contacto{}) {
			r.Contactos = append(r.Contactos, contacto)
		}
	}
	r.Contacto = repo.ContactoPlano(r.Contactos)
	return repo.NewRecurso(r)
}

// limpio recorta y convierte la cadena vacía en nil.
func limpio(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// dia interpreta una fecha ya validada con formato YYYY-MM-DD.
func dia(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil
	}
	return &t
}
