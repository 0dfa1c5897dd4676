package main

import (
	"fmt"
	"os"

	"github.com/arrabal/mapaderecursos/internal/auth"
	"github.com/arrabal/mapaderecursos/internal/util"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: hashpass <contraseña>")
		os.Exit(1)
	}
	if err := util.ValidatePassword(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	hash, err := auth.Hash(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error al generar el hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
