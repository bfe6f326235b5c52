package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubscriberName(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "256 grapheme long name is valid", raw: strings.Repeat("ё", 256)},
		{name: "combining marks count as one grapheme", raw: strings.Repeat("e\u0301", 256)},
		{name: "regular name", raw: "Ursula Le Guin"},
		{name: "name longer than 256 graphemes", raw: strings.Repeat("a", 257), wantErr: true},
		{name: "whitespace only", raw: " ", wantErr: true},
		{name: "empty string", raw: "", wantErr: true},
		{name: "slash", raw: "na/me", wantErr: true},
		{name: "paren", raw: "na(me", wantErr: true},
		{name: "quote", raw: `na"me`, wantErr: true},
		{name: "angle bracket", raw: "<script>", wantErr: true},
		{name: "backslash", raw: `na\me`, wantErr: true},
		{name: "curly brace", raw: "na{me}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSubscriberName(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.raw+" is not a valid subscriber name", err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.raw, got.String())
		})
	}
}

func TestParseNewSubscriber(t *testing.T) {
	sub, err := ParseNewSubscriber("le guin", "ursula_le_guin@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, "le guin", sub.Name.String())
	assert.Equal(t, "ursula_le_guin@gmail.com", sub.Email.String())

	_, err = ParseNewSubscriber("", "ursula_le_guin@gmail.com")
	assert.EqualError(t, err, " is not a valid subscriber name")

	_, err = ParseNewSubscriber("le guin", "definitely-not-an-email")
	assert.EqualError(t, err, "definitely-not-an-email is not a valid subscriber email")
}
