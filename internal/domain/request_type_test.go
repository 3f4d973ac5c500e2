package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestTypeVisibleTo(t *testing.T) {
	tests := []struct {
		name string
		rt   RequestType
		user User
		want bool
	}{
		{
			name: "unrestricted_type",
			rt:   RequestType{Active: true},
			user: User{Sector: "Comercial"},
			want: true,
		},
		{
			name: "sector_match",
			rt:   RequestType{Active: true, AllowedSectors: []string{"financeiro", "rh"}},
			user: User{Sector: "Financeiro"},
			want: true,
		},
		{
			name: "sector_match_trims_whitespace",
			rt:   RequestType{Active: true, AllowedSectors: []string{" financeiro "}},
			user: User{Sector: " financeiro"},
			want: true,
		},
		{
			name: "sector_mismatch",
			rt:   RequestType{Active: true, AllowedSectors: []string{"financeiro"}},
			user: User{Sector: "Comercial"},
			want: false,
		},
		{
			name: "inactive_type_hidden",
			rt:   RequestType{Active: false},
			user: User{Sector: "Financeiro"},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rt.VisibleTo(&tt.user))
		})
	}
}

func TestActiveQuestions(t *testing.T) {
	rt := RequestType{Questions: []Question{
		{ID: "q1", Active: true},
		{ID: "q2", Active: false},
		{ID: "q3", Active: true},
	}}
	got := rt.ActiveQuestions()
	assert.Len(t, got, 2)
	assert.Equal(t, "q1", got[0].ID)
	assert.Equal(t, "q3", got[1].ID)
}

func TestParseSectorList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "basic", input: "Financeiro;RH", want: []string{"financeiro", "rh"}},
		{name: "with_whitespace_and_blanks", input: " Financeiro ; ;RH;", want: []string{"financeiro", "rh"}},
		{name: "newlines_stripped", input: "Financeiro;\nRH", want: []string{"financeiro", "rh"}},
		{name: "empty", input: "", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSectorList(tt.input))
		})
	}
}

func TestParseOptionList(t *testing.T) {
	// Options keep their original case, sectors do not.
	assert.Equal(t, []string{"Sim", "Não"}, ParseOptionList("Sim; Não;"))
	assert.Empty(t, ParseOptionList(" ; ; "))
}
