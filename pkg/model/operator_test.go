package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperator_Suffix(t *testing.T) {
	tests := []struct {
		op    Operator
		param string
	}{
		{OpEq, "quantite"},
		{OpLt, "quantite_inf"},
		{OpLte, "quantite_inf_eg"},
		{OpGt, "quantite_sup"},
		{OpGte, "quantite_sup_eg"},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			assert.True(t, tt.op.IsValid())
			assert.Equal(t, tt.param, tt.op.ParamName("quantite"))
		})
	}

	assert.False(t, Operator("!=").IsValid())
	assert.Equal(t, "", Operator("!=").Suffix())
}

func TestDecodeOrder(t *testing.T) {
	assert.Equal(t, []Operator{OpEq, OpLt, OpLte, OpGt, OpGte}, DecodeOrder())
}

func TestParseOperator(t *testing.T) {
	for in, want := range map[string]Operator{
		"":   OpEq,
		"=":  OpEq,
		"==": OpEq,
		"<":  OpLt,
		"≤":  OpLte,
		"<=": OpLte,
		">":  OpGt,
		"≥":  OpGte,
		">=": OpGte,
	} {
		got, err := ParseOperator(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOperator("~")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestOperatorKey(t *testing.T) {
	assert.Equal(t, "quantite_operator", OperatorKey("quantite"))
}
