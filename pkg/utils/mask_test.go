package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMaskUserID(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		want   string
	}{
		{name: "empty", userID: "", want: ""},
		{name: "single_char", userID: "a", want: "a"},
		{name: "short", userID: "abc", want: "a**"},
		{name: "regular", userID: "user-42", want: "use****"},
		{name: "multibyte", userID: "ünïcode", want: "ünï****"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, MaskUserID(tc.userID))
		})
	}
}

func TestMaskUserID_NeverLeaksTail(t *testing.T) {
	id := uuid.NewString()
	masked := MaskUserID(id)

	require.Len(t, masked, len(id))
	require.Equal(t, id[:3], masked[:3])
	require.NotContains(t, masked, id[3:])
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.NotEqual(t, id, GenerateID())
}
