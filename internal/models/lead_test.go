package models

import "testing"

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"maria@test.es", true},
		{"juan.perez+info@sub.example.com", true},
		{"hola", false},
		{"sin-arroba.es", false},
		{"falta@dominio", false},
		{"con espacios@test.es", false},
		{"doble@@test.es", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := ValidEmail(tt.email); got != tt.want {
				t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}
