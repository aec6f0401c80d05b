// Package password generates random passwords under a character-class policy.
package password

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const (
	lowerSet  = "abcdefghijklmnopqrstuvwxyz"
	upperSet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitSet  = "0123456789"
	symbolSet = "!@#$%^&*()-_=+[]{};:,.<>?/"

	// After this many coverage misses the result is returned as-is so
	// generation always terminates. At default length the bound is never
	// hit in practice.
	maxCoverageAttempts = 10
)

type Policy struct {
	Length  int
	Lower   bool
	Upper   bool
	Digits  bool
	Symbols bool
}

func DefaultPolicy() Policy {
	return Policy{Length: 20, Lower: true, Upper: true, Digits: true, Symbols: true}
}

func (p Policy) alphabet() string {
	var b strings.Builder
	if p.Lower {
		b.WriteString(lowerSet)
	}
	if p.Upper {
		b.WriteString(upperSet)
	}
	if p.Digits {
		b.WriteString(digitSet)
	}
	if p.Symbols {
		b.WriteString(symbolSet)
	}
	return b.String()
}

func (p Policy) covered(s string) bool {
	check := func(enabled bool, set string) bool {
		return !enabled || strings.ContainsAny(s, set)
	}
	return check(p.Lower, lowerSet) &&
		check(p.Upper, upperSet) &&
		check(p.Digits, digitSet) &&
		check(p.Symbols, symbolSet)
}

// Generate draws from the CSPRNG with uniform per-character sampling and
// retries until each enabled class appears at least once, bounded by
// maxCoverageAttempts.
func Generate(p Policy) (string, error) {
	if p.Length <= 0 {
		return "", errors.New("password: non-positive length")
	}
	alphabet := p.alphabet()
	if alphabet == "" {
		return "", errors.New("password: no character classes enabled")
	}

	var out string
	for attempt := 0; attempt < maxCoverageAttempts; attempt++ {
		s, err := draw(alphabet, p.Length)
		if err != nil {
			return "", err
		}
		out = s
		if p.covered(s) {
			return s, nil
		}
	}
	return out, nil
}

func draw(alphabet string, length int) (string, error) {
	n := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
