package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRacerCode(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", ""},
		{"Mario", "MAR"},
		{"Yo", "YO"},
		{"Boba Fett", "BFE"},
		{"Anakin S", "AS"},
		{"  toadette ", "TOA"},
		{"Ääkkönen", "ÄÄK"},
		{"Zoë Émile", "ZÉM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RacerCode(tt.name))
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 4 ")
	require.NoError(t, err)
	assert.Equal(t, 4, id)

	for _, s := range []string{"", "abc", "0", "-2"} {
		_, err := ParseID(s)
		assert.Error(t, err, s)
	}
}

func TestParseChatIDs(t *testing.T) {
	ids, err := ParseChatIDs([]string{"123", "", " -100200 "})
	require.NoError(t, err)
	assert.Equal(t, []int64{123, -100200}, ids)

	_, err = ParseChatIDs([]string{"x"})
	assert.Error(t, err)
}
