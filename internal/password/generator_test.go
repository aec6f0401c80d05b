package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyCoverage(t *testing.T) {
	p := DefaultPolicy()
	for i := 0; i < 10000; i++ {
		s, err := Generate(p)
		require.NoError(t, err)
		require.Len(t, s, 20)
		assert.True(t, strings.ContainsAny(s, lowerSet), "no lowercase in %q", s)
		assert.True(t, strings.ContainsAny(s, upperSet), "no uppercase in %q", s)
		assert.True(t, strings.ContainsAny(s, digitSet), "no digit in %q", s)
		assert.True(t, strings.ContainsAny(s, symbolSet), "no symbol in %q", s)
	}
}

func TestAlphabetRestriction(t *testing.T) {
	s, err := Generate(Policy{Length: 64, Digits: true})
	require.NoError(t, err)
	for _, r := range s {
		assert.Contains(t, digitSet, string(r))
	}
}

func TestSingleClassShortPassword(t *testing.T) {
	// length 1 with one class enabled always satisfies coverage
	s, err := Generate(Policy{Length: 1, Lower: true})
	require.NoError(t, err)
	assert.Len(t, s, 1)
}

func TestDisabledClassesNeverAppear(t *testing.T) {
	s, err := Generate(Policy{Length: 256, Lower: true, Upper: true})
	require.NoError(t, err)
	assert.False(t, strings.ContainsAny(s, digitSet))
	assert.False(t, strings.ContainsAny(s, symbolSet))
}

func TestInvalidPolicies(t *testing.T) {
	_, err := Generate(Policy{Length: 0, Lower: true})
	assert.Error(t, err)
	_, err = Generate(Policy{Length: 16})
	assert.Error(t, err)
}

func TestGenerateDiffers(t *testing.T) {
	a, err := Generate(DefaultPolicy())
	require.NoError(t, err)
	b, err := Generate(DefaultPolicy())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
