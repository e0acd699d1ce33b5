package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRenovation() *Renovation {
	return &Renovation{
		CreatorUID:      "U1",
		RefugeID:        "R1",
		IniDate:         "2025-03-15",
		FinDate:         "2025-03-18",
		Description:     "Roof",
		GroupLink:       "https://t.me/x",
		ParticipantsUID: []string{},
		ExpelledUID:     []string{},
	}
}

func TestRenovationValidate(t *testing.T) {
	today := "2025-03-10"

	tests := []struct {
		name      string
		mutate    func(*Renovation)
		wantField string
	}{
		{name: "valid", mutate: func(r *Renovation) {}},
		{
			name:      "missing refuge",
			mutate:    func(r *Renovation) { r.RefugeID = " " },
			wantField: "refuge_id",
		},
		{
			name:      "empty description",
			mutate:    func(r *Renovation) { r.Description = "" },
			wantField: "description",
		},
		{
			name:      "relative group link",
			mutate:    func(r *Renovation) { r.GroupLink = "/chat/x" },
			wantField: "group_link",
		},
		{
			name:      "malformed ini date",
			mutate:    func(r *Renovation) { r.IniDate = "15-03-2025" },
			wantField: "ini_date",
		},
		{
			name:      "malformed fin date",
			mutate:    func(r *Renovation) { r.FinDate = "2025-3-18" },
			wantField: "fin_date",
		},
		{
			name:      "ini equals fin",
			mutate:    func(r *Renovation) { r.FinDate = r.IniDate },
			wantField: "ini_date",
		},
		{
			name:      "ini after fin",
			mutate:    func(r *Renovation) { r.IniDate = "2025-03-20" },
			wantField: "ini_date",
		},
		{
			name:      "ini in the past",
			mutate:    func(r *Renovation) { r.IniDate = "2025-03-09"; r.FinDate = "2025-03-12" },
			wantField: "ini_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRenovation()
			tt.mutate(r)
			err := r.Validate(today)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields, tt.wantField)
		})
	}
}

func TestRenovationValidateStartingToday(t *testing.T) {
	r := validRenovation()
	r.IniDate = "2025-03-10"
	r.FinDate = "2025-03-12"
	assert.NoError(t, r.Validate("2025-03-10"))
}

func TestOverlapsRange(t *testing.T) {
	r := &Renovation{IniDate: "2025-03-15", FinDate: "2025-03-18"}

	tests := []struct {
		name     string
		ini, fin string
		want     bool
	}{
		{"candidate starts inside", "2025-03-17", "2025-03-20", true},
		{"candidate ends inside", "2025-03-12", "2025-03-15", true},
		{"candidate contains existing", "2025-03-10", "2025-03-25", true},
		{"candidate inside existing", "2025-03-16", "2025-03-17", true},
		{"identical", "2025-03-15", "2025-03-18", true},
		{"touching end boundary", "2025-03-18", "2025-03-20", true},
		{"touching start boundary", "2025-03-12", "2025-03-15", true},
		{"strictly before", "2025-03-10", "2025-03-14", false},
		{"strictly after", "2025-03-19", "2025-03-22", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.OverlapsRange(tt.ini, tt.fin))
		})
	}
}

func TestState(t *testing.T) {
	r := &Renovation{IniDate: "2025-03-15", FinDate: "2025-03-18"}

	assert.Equal(t, StateUpcoming, r.State("2025-03-10"))
	assert.Equal(t, StateInProgress, r.State("2025-03-15"))
	assert.Equal(t, StateInProgress, r.State("2025-03-16"))
	assert.Equal(t, StateInProgress, r.State("2025-03-18"))
	assert.Equal(t, StatePast, r.State("2025-03-19"))

	assert.True(t, r.IsActive("2025-03-10"))
	assert.True(t, r.IsActive("2025-03-15"))
	assert.False(t, r.IsActive("2025-03-16"))
}

func TestRosterPredicates(t *testing.T) {
	r := validRenovation()
	r.ParticipantsUID = []string{"U2", "U3"}
	r.ExpelledUID = []string{"U4"}

	assert.True(t, r.HasParticipant("U2"))
	assert.False(t, r.HasParticipant("U4"))
	assert.True(t, r.IsExpelled("U4"))
	assert.False(t, r.IsExpelled("U2"))
}

func TestRenovationJSONRoundTrip(t *testing.T) {
	original := validRenovation()
	original.ID = "abc123"
	original.MaterialsNeeded = "hammer, nails"
	original.ParticipantsUID = []string{"U2"}
	original.ExpelledUID = []string{"U3"}

	encoded, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Renovation
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, *original, decoded)
}

func TestUpdateRequestEmpty(t *testing.T) {
	var req UpdateRenovationRequest
	assert.True(t, req.Empty())

	desc := "new description"
	req.Description = &desc
	assert.False(t, req.Empty())
}

func TestValidAbsoluteURL(t *testing.T) {
	assert.True(t, ValidAbsoluteURL("https://t.me/x"))
	assert.True(t, ValidAbsoluteURL("http://example.com/group"))
	assert.False(t, ValidAbsoluteURL(""))
	assert.False(t, ValidAbsoluteURL("t.me/x"))
	assert.False(t, ValidAbsoluteURL("/relative/path"))
}
