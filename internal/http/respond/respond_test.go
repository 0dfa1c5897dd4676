package respond

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, []int{1, 2})

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type: %s", ct)
	}
	var env struct {
		Data  []int `json:"data"`
		Error any   `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data) != 2 || env.Error != nil {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
}

func TestInternalHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	Internal(rec, errors.New("password=secreto"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secreto") {
		t.Fatal("leaked error cause")
	}
	if !strings.Contains(rec.Body.String(), CodeInternal) {
		t.Fatalf("body: %s", rec.Body.String())
	}
}
