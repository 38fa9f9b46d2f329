package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string `validate:"required"`
	Amount int64  `validate:"gt=0"`
}

func TestGetValidator_Singleton(t *testing.T) {
	require.Same(t, GetValidator(), GetValidator())
}

func TestDescribe(t *testing.T) {
	err := GetValidator().Struct(sample{})
	require.Error(t, err)
	require.Equal(t, "Name failed on 'required'; Amount failed on 'gt=0'", Describe(err))

	require.Equal(t, "plain", Describe(errors.New("plain")))
	require.NoError(t, GetValidator().Struct(sample{Name: "x", Amount: 1}))
}
