// Package admin expone las escrituras del panel: login, catálogos, entidades,
// recursos, ajustes, vaciado de caché e informes.
package admin

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/arrabal/mapaderecursos/internal/ajustes"
	"github.com/arrabal/mapaderecursos/internal/auth"
	"github.com/arrabal/mapaderecursos/internal/cache"
	"github.com/arrabal/mapaderecursos/internal/informe"
	"github.com/arrabal/mapaderecursos/internal/repo"
)

var (
	ErrConflict     = errors.New("conflicto con un registro existente")
	ErrCredenciales = errors.New("credenciales inválidas")
	ErrValidacion   = errors.New("datos inválidos")
)

// Store es la persistencia que necesita el panel. Cada escritura guarda su
// auditoría en la misma transacción.
type Store interface {
	AdminPorEmail(ctx context.Context, email string) (Admin, error)
	GuardarTaxonomia(ctx context.Context, tipo Tipo, t repo.Taxonomia, a Auditoria) (repo.Taxonomia, error)
	GuardarServicio(ctx context.Context, s repo.Servicio, a Auditoria) (repo.Servicio, error)
	GuardarSubcategoria(ctx context.Context, s repo.Subcategoria, a Auditoria) (repo.Subcategoria, error)
	GuardarEntidad(ctx context.Context, e repo.Entidad, a Auditoria) (repo.Entidad, error)
	GuardarRecurso(ctx context.Context, r repo.Recurso, a Auditoria) (repo.Recurso, error)
	Borrar(ctx context.Context, tipo Tipo, id int64, a Auditoria) error
	Registrar(ctx context.Context, a Auditoria) error
}

type AjustesUpdater interface {
	Update(ctx context.Context, c ajustes.Cambio, adminID *int64) (ajustes.Ajustes, error)
}

type Informes interface {
	Generar(ctx context.Context, r informe.Rango) (informe.Resultado, error)
}

type Service struct {
	store    Store
	cache    cache.Store
	jwt      *auth.JWTManager
	ajustes  AjustesUpdater
	informes Informes
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(store Store, c cache.Store, jwt *auth.JWTManager, aj AjustesUpdater, inf Informes, logger zerolog.Logger) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{
		store:    store,
		cache:    c,
		jwt:      jwt,
		ajustes:  aj,
		informes: inf,
		validate: v,
		logger:   logger.With().Str("component", "admin").Logger(),
	}
}

// Sesion es la respuesta de un login correcto.
type Sesion struct {
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
	Admin     Admin     `json:"admin"`
}

func (s *Service) Login(ctx context.Context, email, password string) (Sesion, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Sesion{}, ErrCredenciales
	}

	a, err := s.store.AdminPorEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Sesion{}, ErrCredenciales
		}
		return Sesion{}, err
	}
	if !a.Activo {
		return Sesion{}, ErrCredenciales
	}
	ok, err := auth.Verify(password, a.PasswordHash)
	if err != nil || !ok {
		return Sesion{}, ErrCredenciales
	}

	token, _, exp, err := s.jwt.GenerateAccessToken(a.ID, a.Email)
	if err != nil {
		return Sesion{}, err
	}
	if err := s.store.Registrar(ctx, Auditoria{AdminID: a.ID, Accion: "login", Objeto: "admin", ObjetoID: &a.ID}); err != nil {
		s.logger.Warn().Err(err).Msg("no se pudo registrar el login")
	}
	return Sesion{Token: token, ExpiresAt: exp, Admin: a}, nil
}

// valid devuelve un error que cumple errors.Is(err, ErrValidacion).
func (s *Service) valid(in any) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrValidacion, err)
	}
	return nil
}

func auditoria(adminID, id int64, tipo Tipo, nombre string) Auditoria {
	a := Auditoria{AdminID: adminID, Accion: "crear", Objeto: string(tipo), Detalle: map[string]any{"nombre": nombre}}
	if id > 0 {
		a.Accion = "actualizar"
	}
	return a
}

// flush vacía la caché pública tras una escritura confirmada.
func (s *Service) flush(ctx context.Context) {
	cache.Flush(ctx, s.cache, s.logger)
}

func (s *Service) GuardarTaxonomia(ctx context.Context, adminID int64, tipo Tipo, id int64, in TaxonomiaInput) (repo.Taxonomia, error) {
	if !tipo.esTaxonomia() {
		return repo.Taxonomia{}, fmt.Errorf("%w: tipo %q", ErrValidacion, tipo)
	}
	if err := s.valid(in); err != nil {
		return repo.Taxonomia{}, err
	}
	t := in.taxonomia(id)
	if t.Slug == "" {
		return repo.Taxonomia{}, fmt.Errorf("%w: slug vacío", ErrValidacion)
	}

	out, err := s.store.GuardarTaxonomia(ctx, tipo, t, auditoria(adminID, id, tipo, t.Nombre))
	if err != nil {
		return repo.Taxonomia{}, err
	}
	s.flush(ctx)
	return out, nil
}

func (s *Service) GuardarServicio(ctx context.Context, adminID, id int64, in ServicioInput) (repo.Servicio, error) {
	if err := s.valid(in); err != nil {
		return repo.Servicio{}, err
	}
	svc := repo.Servicio{
		Taxonomia:    in.taxonomia(id),
		IconoMediaID: in.IconoMediaID,
		IconoSVG:     in.IconoSVG,
		IconoClase:   limpio(in.IconoClase),
	}
	if svc.Slug == "" {
		return repo.Servicio{}, fmt.Errorf("%w: slug vacío", ErrValidacion)
	}

	out, err := s.store.GuardarServicio(ctx, svc, auditoria(adminID, id, TipoServicio, svc.Nombre))
	if err != nil {
		return repo.Servicio{}, err
	}
	s.flush(ctx)
	return out, nil
}

func (s *Service) GuardarSubcategoria(ctx context.Context, adminID, id int64, in SubcategoriaInput) (repo.Subcategoria, error) {
	if err := s.valid(in); err != nil {
		return repo.Subcategoria{}, err
	}
	t := in.taxonomia(id)
	sub := repo.Subcategoria{ID: id, AmbitoID: in.AmbitoID, Nombre: t.Nombre, Slug: t.Slug}
	if sub.Slug == "" {
		return repo.Subcategoria{}, fmt.Errorf("%w: slug vacío", ErrValidacion)
	}

	out, err := s.store.GuardarSubcategoria(ctx, sub, auditoria(adminID, id, TipoSubcategoria, sub.Nombre))
	if err != nil {
		return repo.Subcategoria{}, err
	}
	s.flush(ctx)
	return out, nil
}

func (s *Service) GuardarEntidad(ctx context.Context, adminID, id int64, in EntidadInput) (repo.Entidad, error) {
	if err := s.valid(in); err != nil {
		return repo.Entidad{}, err
	}
	e, err := in.entidad(id)
	if err != nil {
		return repo.Entidad{}, fmt.Errorf("%w: %w", ErrValidacion, err)
	}

	out, err := s.store.GuardarEntidad(ctx, e, auditoria(adminID, id, TipoEntidad, e.Nombre))
	if err != nil {
		return repo.Entidad{}, err
	}
	s.flush(ctx)
	return out, nil
}

func (s *Service) GuardarRecurso(ctx context.Context, adminID, id int64, in RecursoInput) (repo.Recurso, error) {
	if err := s.valid(in); err != nil {
		return repo.Recurso{}, err
	}
	r, err := in.recurso(id)
	if err != nil {
		return repo.Recurso{}, fmt.Errorf("%w: %w", ErrValidacion, err)
	}

	out, err := s.store.GuardarRecurso(ctx, r, auditoria(adminID, id, TipoRecurso, r.RecursoPrograma))
	if err != nil {
		return repo.Recurso{}, err
	}
	s.flush(ctx)
	return out, nil
}

func (s *Service) Borrar(ctx context.Context, adminID int64, tipo Tipo, id int64) error {
	if _, ok := tipo.Tabla(); !ok || id <= 0 {
		return fmt.Errorf("%w: tipo %q id %d", ErrValidacion, tipo, id)
	}
	if err := s.store.Borrar(ctx, tipo, id, Auditoria{AdminID: adminID, Accion: "borrar", Objeto: string(tipo)}); err != nil {
		return err
	}
	s.flush(ctx)
	return nil
}

func (s *Service) ActualizarAjustes(ctx context.Context, adminID int64, c ajustes.Cambio) (ajustes.Ajustes, error) {
	if err := s.valid(c); err != nil {
		return ajustes.Ajustes{}, err
	}
	out, err := s.ajustes.Update(ctx, c, &adminID)
	if err != nil {
		if errors.Is(err, ajustes.ErrInvalido) {
			return ajustes.Ajustes{}, fmt.Errorf("%w: %w", ErrValidacion, err)
		}
		return ajustes.Ajustes{}, err
	}
	if err := s.store.Registrar(ctx, Auditoria{AdminID: adminID, Accion: "actualizar", Objeto: "ajustes"}); err != nil {
		s.logger.Warn().Err(err).Msg("no se pudo registrar el cambio de ajustes")
	}
	s.flush(ctx)
	return out, nil
}

func (s *Service) VaciarCache(ctx context.Context, adminID int64) error {
	if err := s.store.Registrar(ctx, Auditoria{AdminID: adminID, Accion: "vaciar", Objeto: "cache"}); err != nil {
		return err
	}
	s.flush(ctx)
	return nil
}

func (s *Service) GenerarInforme(ctx context.Context, adminID int64, r informe.Rango) (informe.Resultado, error) {
	res, err := s.informes.Generar(ctx, r)
	if err != nil {
		if errors.Is(err, informe.ErrRangoInvalido) {
			return informe.Resultado{}, fmt.Errorf("%w: %w", ErrValidacion, err)
		}
		return informe.Resultado{}, err
	}
	a := Auditoria{
		AdminID: adminID,
		Accion:  "generar_informe",
		Objeto:  "informe",
		Detalle: map[string]any{"url": res.URL, "total": res.Total},
	}
	if err := s.store.Registrar(ctx, a); err != nil {
		s.logger.Warn().Err(err).Msg("no se pudo registrar el informe")
	}
	return res, nil
}
