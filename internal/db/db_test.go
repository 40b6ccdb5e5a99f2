package db

import (
	"testing"

	"icyco-rag/internal/config"
)

func TestVectorValue(t *testing.T) {
	tests := []struct {
		in   Vector
		want any
	}{
		{nil, nil},
		{Vector{}, "[]"},
		{Vector{1, -0.5, 0.25}, "[1,-0.5,0.25]"},
	}
	for _, tt := range tests {
		got, err := tt.in.Value()
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Value(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConnectDBRequiresDSN(t *testing.T) {
	if _, err := ConnectDB(&config.DatabaseConfig{}); err == nil {
		t.Error("expected error without dsn")
	}
}
