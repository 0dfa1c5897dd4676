// Package texto agrupa utilidades de texto en español compartidas por la
// agenda y el feed de empleo.
package texto

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripTags devuelve el texto visible de un fragmento HTML. Un fragmento que
// no se puede analizar se devuelve tal cual, sin etiquetas conocidas.
func StripTags(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return NormalizeSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return NormalizeSpace(html)
	}
	return NormalizeSpace(doc.Text())
}

// NormalizeSpace colapsa cualquier secuencia de espacios en uno solo.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TrimWords corta el texto a n palabras y añade una elipsis si sobraba algo.
func TrimWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "…"
}
