package logger

import (
	"net/http"
	"testing"
)

func TestMaskAuthorization(t *testing.T) {
	got := MaskAuthorization("Bearer abcdef1234")
	want := "Bearer ****1234"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskAuthorizationWithoutScheme(t *testing.T) {
	got := MaskAuthorization("abcdef1234")
	want := "****1234"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskHeaders(t *testing.T) {
	headers := http.Header{
		"Authorization": {"Bearer secret-token-9876"},
		"Cookie":        {"session=abcdef1234"},
		"Content-Type":  {"application/json"},
	}
	masked := MaskHeaders(headers)
	if masked["Authorization"] != "Bearer ****9876" {
		t.Fatalf("expected masked authorization, got %q", masked["Authorization"])
	}
	if masked["Cookie"] != "****1234" {
		t.Fatalf("expected masked cookie, got %q", masked["Cookie"])
	}
	if masked["Content-Type"] != "application/json" {
		t.Fatalf("expected content type untouched, got %q", masked["Content-Type"])
	}
}
