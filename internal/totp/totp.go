// Package totp computes RFC 4226 HOTP and RFC 6238 TOTP codes from secrets
// given either as raw base32 or as otpauth:// provisioning URIs.
package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDigits = 6
	DefaultPeriod = 30

	minDigits = 6
	maxDigits = 10
)

// ErrBadSecret covers every parse failure: non-alphabet base32, a malformed
// URI, or parameters outside their allowed ranges.
var ErrBadSecret = errors.New("totp: bad secret")

type Algorithm string

const (
	SHA1   Algorithm = "SHA1"
	SHA256 Algorithm = "SHA256"
	SHA512 Algorithm = "SHA512"
)

func (a Algorithm) hash() func() hash.Hash {
	switch a {
	case SHA256:
		return sha256.New
	case SHA512:
		return sha512.New
	default:
		return sha1.New
	}
}

// Key is a fully-resolved TOTP configuration.
type Key struct {
	Secret    []byte
	Digits    int
	Period    uint64
	Algorithm Algorithm
	Issuer    string
	Label     string
}

// ParseSecret accepts either a raw base32 secret or an otpauth:// URI and
// returns a key with defaults filled in.
func ParseSecret(s string) (*Key, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "otpauth://") {
		return ParseURI(s)
	}
	secret, err := DecodeBase32(s)
	if err != nil {
		return nil, err
	}
	return &Key{
		Secret:    secret,
		Digits:    DefaultDigits,
		Period:    DefaultPeriod,
		Algorithm: SHA1,
	}, nil
}

// ParseURI parses otpauth://totp/<label>?secret=...&issuer=...&algorithm=...
// &digits=...&period=... Unknown query parameters are ignored; real-world
// issuers attach vendor-specific keys.
func ParseURI(raw string) (*Key, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSecret, err)
	}
	if !strings.EqualFold(u.Scheme, "otpauth") || !strings.EqualFold(u.Host, "totp") {
		return nil, fmt.Errorf("%w: not a totp URI", ErrBadSecret)
	}
	q := u.Query()

	secret, err := DecodeBase32(q.Get("secret"))
	if err != nil {
		return nil, err
	}
	k := &Key{
		Secret:    secret,
		Digits:    DefaultDigits,
		Period:    DefaultPeriod,
		Algorithm: SHA1,
		Issuer:    q.Get("issuer"),
		Label:     strings.TrimPrefix(u.Path, "/"),
	}

	if v := q.Get("algorithm"); v != "" {
		switch strings.ToUpper(v) {
		case string(SHA1):
			k.Algorithm = SHA1
		case string(SHA256):
			k.Algorithm = SHA256
		case string(SHA512):
			k.Algorithm = SHA512
		default:
			return nil, fmt.Errorf("%w: algorithm %q", ErrBadSecret, v)
		}
	}
	if v := q.Get("digits"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < minDigits || d > maxDigits {
			return nil, fmt.Errorf("%w: digits %q", ErrBadSecret, v)
		}
		k.Digits = d
	}
	if v := q.Get("period"); v != "" {
		p, err := strconv.ParseUint(v, 10, 32)
		if err != nil || p < 1 {
			return nil, fmt.Errorf("%w: period %q", ErrBadSecret, v)
		}
		k.Period = p
	}
	return k, nil
}

// DecodeBase32 decodes a secret, tolerating lower case, interior spaces and
// missing padding.
func DecodeBase32(s string) ([]byte, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	norm = strings.TrimRight(norm, "=")
	if norm == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadSecret)
	}
	b, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(norm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSecret, err)
	}
	return b, nil
}

// EncodeBase32 renders secret bytes in the canonical storage form: upper
// case, no padding.
func EncodeBase32(b []byte) string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)
}

// HOTP computes one RFC 4226 code: HMAC over the big-endian counter, dynamic
// truncation, modulo 10^digits, left-padded with zeros.
func HOTP(secret []byte, counter uint64, digits int, alg Algorithm) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], counter)

	mac := hmac.New(alg.hash(), secret)
	mac.Write(buf[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0F
	trunc := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7FFFFFFF

	mod := uint64(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, uint64(trunc)%mod)
}

// Code returns the TOTP value at time t.
func (k *Key) Code(t time.Time) string {
	counter := uint64(t.Unix()) / k.Period
	return HOTP(k.Secret, counter, k.Digits, k.Algorithm)
}

// Remaining reports how many seconds the code at time t stays valid, for
// display next to the code.
func (k *Key) Remaining(t time.Time) uint64 {
	return k.Period - uint64(t.Unix())%k.Period
}
