package texto

import (
	"slices"
	"testing"
	"time"
)

func TestParseFecha(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"15 de enero de 2026 10:00h", time.Date(2026, 1, 15, 10, 0, 0, 0, loc), true},
		{"15 de enero de 2026 10:00 h.", time.Date(2026, 1, 15, 10, 0, 0, 0, loc), true},
		{"Jueves, 5 de Marzo de 2026 a las 9:30h", time.Date(2026, 3, 5, 9, 30, 0, 0, loc), true},
		{"1 de setiembre de 2025", time.Date(2025, 9, 1, 0, 0, 0, 0, loc), true},
		{"31  diciembre   2026", time.Date(2026, 12, 31, 0, 0, 0, 0, loc), true},
		{"próximamente", time.Time{}, false},
		{"", time.Time{}, false},
		{"32 de enero de 2026", time.Time{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseFecha(tc.in, loc)
			if ok != tc.ok {
				t.Fatalf("ok: got %v want %v", ok, tc.ok)
			}
			if ok && !got.Equal(tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestFormatFecha(t *testing.T) {
	if got := FormatFecha(time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)); got != "3 de mayo de 2026" {
		t.Fatalf("got %q", got)
	}
}

func TestStripAndTrim(t *testing.T) {
	got := StripTags("<p>Hola <strong>mundo</strong></p>\n<p>&amp; más</p>")
	if got != "Hola mundo & más" {
		t.Fatalf("strip: %q", got)
	}
	if got := TrimWords("uno dos tres cuatro", 2); got != "uno dos…" {
		t.Fatalf("trim: %q", got)
	}
	if got := TrimWords(" uno  dos ", 5); got != "uno dos" {
		t.Fatalf("trim short: %q", got)
	}
}

func TestColorAleatorio(t *testing.T) {
	for i := 0; i < 50; i++ {
		if c := ColorAleatorio(); !slices.Contains(Paleta, c) {
			t.Fatalf("color fuera de paleta: %s", c)
		}
	}
}
