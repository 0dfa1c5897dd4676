package util

import (
	"errors"
	"net/mail"
	"strings"
)

// ValidateEmail devuelve error para emails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email obligatorio")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("email inválido")
	}
	return nil
}

// ValidatePassword comprueba la longitud mínima de la contraseña de un administrador.
func ValidatePassword(password string) error {
	if len(password) < 10 {
		return errors.New("la contraseña debe tener al menos 10 caracteres")
	}
	return nil
}

// RequireString exige una cadena no vacía.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " obligatorio")
	}
	return nil
}
