package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestDeriveAge(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		dob  *time.Time
		want string
	}{
		{"exact years", date(1990, 8, 28), "36 years, 0 months"},
		{"mid year", date(1990, 3, 15), "36 years, 5 months"},
		{"birthday not yet this month", date(1990, 8, 30), "35 years, 11 months"},
		{"birthday later this year", date(1990, 12, 1), "35 years, 8 months"},
		{"infant", date(2026, 6, 1), "0 years, 2 months"},
		{"no dob", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Patient{DateOfBirth: tt.dob}
			p.DeriveAge(now)
			assert.Equal(t, tt.want, p.Age)
		})
	}
}

func TestDeriveFullName(t *testing.T) {
	tests := []struct {
		name  string
		first string
		last  string
		want  string
	}{
		{"both parts", "Jordan", "Lee", "Jordan Lee"},
		{"first only", "Jordan", "", "Jordan"},
		{"neither", "", "", "Unknown"},
		{"last only", "", "Lee", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Patient{FirstName: tt.first, LastName: tt.last}
			p.DeriveFullName()
			assert.Equal(t, tt.want, p.FullName)
		})
	}
}
