package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialDate_Validate(t *testing.T) {
	assert.NoError(t, PartialDate{Year: 2024}.Validate())
	assert.NoError(t, PartialDate{Year: 2024, Month: 2}.Validate())
	assert.NoError(t, PartialDate{Year: 2024, Month: 2, Day: 29}.Validate())
	assert.NoError(t, PartialDate{Month: 6}.Validate())

	assert.ErrorIs(t, PartialDate{Year: 2023, Month: 2, Day: 29}.Validate(), ErrInvalidValue)
	assert.ErrorIs(t, PartialDate{Month: 13}.Validate(), ErrInvalidValue)
	assert.ErrorIs(t, PartialDate{Day: 32}.Validate(), ErrInvalidValue)
	assert.ErrorIs(t, PartialDate{Year: 10000}.Validate(), ErrInvalidValue)
}

func TestPartialDate_IsZero(t *testing.T) {
	assert.True(t, PartialDate{}.IsZero())
	assert.False(t, PartialDate{Day: 1}.IsZero())
}

func TestParseDateComponent(t *testing.T) {
	n, err := ParseDateComponent("2024")
	require.NoError(t, err)
	assert.Equal(t, 2024, n)

	_, err = ParseDateComponent("0")
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = ParseDateComponent("mars")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestParseStrictDate(t *testing.T) {
	d, err := ParseStrictDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", d)

	_, err = ParseStrictDate("15/03/2024")
	assert.ErrorIs(t, err, ErrInvalidValue)
}
