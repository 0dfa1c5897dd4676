package agenda

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestJetFieldExtractor(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	x := NewJetFieldExtractor(loc, zerolog.Nop())

	meta := x.Extract(`<div class="jet-listing-dynamic-field__content">INICIO: 15 de enero de 2026 10:00h</div>`)
	if meta.Inicio != "15 de enero de 2026 10:00h" {
		t.Fatalf("inicio: %q", meta.Inicio)
	}
	if meta.InicioTS == nil {
		t.Fatal("expected timestamp")
	}
	want := time.Date(2026, 1, 15, 10, 0, 0, 0, loc)
	if got := time.Unix(*meta.InicioTS, 0); !got.Equal(want) {
		t.Fatalf("timestamp: got %v want %v", got.In(loc), want)
	}
}

func TestJetFieldExtractorAllFields(t *testing.T) {
	x := NewJetFieldExtractor(time.UTC, zerolog.Nop())
	html := `
<div class="elementor jet-listing-dynamic-field__content otra">  Finalización:
   20 de enero de 2026 </div>
<div class="jet-listing-dynamic-field__content">lugar: Centro Cívico   Palma-Palmilla</div>
<div class="jet-listing-dynamic-field__content">ORGANIZA: Asociación Arrabal-AID</div>
<div class="otra-clase">INICIO: 1 de enero de 2020</div>
<div class="jet-listing-dynamic-field__content">   </div>`

	meta := x.Extract(html)
	if meta.Fin != "20 de enero de 2026" {
		t.Fatalf("fin: %q", meta.Fin)
	}
	if meta.Lugar != "Centro Cívico Palma-Palmilla" {
		t.Fatalf("lugar: %q", meta.Lugar)
	}
	if meta.Organiza != "Asociación Arrabal-AID" {
		t.Fatalf("organiza: %q", meta.Organiza)
	}
	if meta.Inicio != "" || meta.InicioTS != nil {
		t.Fatalf("inicio outside marker class must be ignored: %+v", meta)
	}
}

func TestJetFieldExtractorUnparseable(t *testing.T) {
	x := NewJetFieldExtractor(time.UTC, zerolog.Nop())

	meta := x.Extract(`<div class="jet-listing-dynamic-field__content">INICIO: a determinar</div>`)
	if meta.Inicio != "a determinar" || meta.InicioTS != nil {
		t.Fatalf("got %+v", meta)
	}
	if got := x.Extract(`<div class="jet-listing`); got.Inicio != "" {
		t.Fatalf("broken html: %+v", got)
	}
	if got := x.Extract(""); got != (Meta{}) {
		t.Fatalf("empty: %+v", got)
	}
}
