package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword_MeetsPolicy(t *testing.T) {
	for i := 0; i < 200; i++ {
		pw, err := Password(DefaultPasswordLength)
		require.NoError(t, err)
		assert.Len(t, pw, DefaultPasswordLength)
		assert.True(t, Satisfies(pw), pw)
	}
}

func TestPassword_RaisesShortLength(t *testing.T) {
	pw, err := Password(3)
	require.NoError(t, err)
	assert.Len(t, pw, MinPasswordLength)
	assert.True(t, Satisfies(pw))
}

func TestPassword_SymbolPositionVaries(t *testing.T) {
	// The guaranteed symbol must not always sit at the same index.
	positions := map[int]bool{}
	for i := 0; i < 200; i++ {
		pw, err := Password(DefaultPasswordLength)
		require.NoError(t, err)
		positions[strings.IndexAny(pw, SymbolChars)] = true
	}
	assert.Greater(t, len(positions), 1)
}

func TestDigits(t *testing.T) {
	code, err := Digits(6)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Empty(t, strings.Trim(code, "0123456789"))

	_, err = Digits(0)
	assert.Error(t, err)
}

func TestIntn_Bounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		n, err := Intn(999)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 999)
	}
	_, err := Intn(0)
	assert.Error(t, err)
}

func TestSatisfies_RejectsWeak(t *testing.T) {
	assert.False(t, Satisfies("short1!A"[:7]))
	assert.False(t, Satisfies("alllowercase1!"))
	assert.False(t, Satisfies("NoDigitsHere!"))
	assert.False(t, Satisfies("NoSymbols123"))
	assert.True(t, Satisfies("Ab3$efgh"))
}
