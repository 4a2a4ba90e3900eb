package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAddresses(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil stays empty", nil, []string{}},
		{"duplicates collapse case-insensitively",
			[]string{"Buyer@Example.com", "buyer@example.com", "office@example.com"},
			[]string{"Buyer@Example.com", "office@example.com"}},
		{"blank entries dropped",
			[]string{"", "  ", "office@example.com"},
			[]string{"office@example.com"}},
		{"order preserved",
			[]string{"b@x.com", "a@x.com", "b@x.com"},
			[]string{"b@x.com", "a@x.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dedupeAddresses(tt.in))
		})
	}
}
