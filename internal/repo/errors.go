package repo

import "errors"

var (
	// ErrNotFound se devuelve cuando no se encuentra ningún registro.
	ErrNotFound = errors.New("registro no encontrado")
	// ErrCoordenadas indica una entidad con solo una de lat/lng.
	ErrCoordenadas = errors.New("lat y lng deben informarse juntas")
)
