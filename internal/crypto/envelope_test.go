package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	key := randBytes(t, KeySize)
	pt := []byte(`{"title":"demo","password":"hunter2"}`)

	env, err := SealEnvelope(key, pt, nil)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if env.Version != EnvelopeVersion {
		t.Fatalf("version %d", env.Version)
	}

	data, err := env.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := ParseEnvelope(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := parsed.Open(key, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(pt, out) {
		t.Fatal("plaintext mismatch")
	}
}

func TestEnvelopeFreshNonces(t *testing.T) {
	key := randBytes(t, KeySize)
	pt := []byte("data")
	e1, err := SealEnvelope(key, pt, nil)
	if err != nil {
		t.Fatalf("seal1: %v", err)
	}
	e2, err := SealEnvelope(key, pt, nil)
	if err != nil {
		t.Fatalf("seal2: %v", err)
	}
	if e1.Nonce == e2.Nonce {
		t.Fatal("expected distinct nonces")
	}
}

func TestEnvelopeOpenRejectsBitFlip(t *testing.T) {
	key := randBytes(t, KeySize)
	env, err := SealEnvelope(key, []byte("hunter2"), nil)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	ct, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range ct {
		mut := append([]byte(nil), ct...)
		mut[i] ^= 0x80
		tampered := *env
		tampered.Ciphertext = base64.StdEncoding.EncodeToString(mut)
		if _, err := tampered.Open(key, nil); err != ErrDecrypt {
			t.Fatalf("flip at %d: got %v, want ErrDecrypt", i, err)
		}
	}
}

func TestEnvelopeOpenRejectsBadRecord(t *testing.T) {
	key := randBytes(t, KeySize)
	env, err := SealEnvelope(key, []byte("x"), nil)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	wrongVersion := *env
	wrongVersion.Version = 2
	if _, err := wrongVersion.Open(key, nil); err != ErrDecrypt {
		t.Fatalf("version: got %v", err)
	}

	badNonce := *env
	badNonce.Nonce = "@@not-base64@@"
	if _, err := badNonce.Open(key, nil); err != ErrDecrypt {
		t.Fatalf("nonce: got %v", err)
	}

	shortNonce := *env
	shortNonce.Nonce = base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := shortNonce.Open(key, nil); err != ErrDecrypt {
		t.Fatalf("short nonce: got %v", err)
	}
}

func FuzzEnvelopeRejectMutations(f *testing.F) {
	f.Add([]byte("hello"), uint8(3))
	f.Add([]byte(""), uint8(0))
	f.Fuzz(func(t *testing.T, pt []byte, pos uint8) {
		key := make([]byte, KeySize)
		for i := range key {
			key[i] = byte(i)
		}
		env, err := SealEnvelope(key, pt, nil)
		if err != nil {
			t.Fatalf("seal: %v", err)
		}
		if _, err := env.Open(key, nil); err != nil {
			t.Fatalf("open baseline: %v", err)
		}
		ct, err := base64.StdEncoding.DecodeString(env.Ciphertext)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		idx := int(pos) % len(ct)
		ct[idx] ^= 0xFF
		env.Ciphertext = base64.StdEncoding.EncodeToString(ct)
		if _, err := env.Open(key, nil); err != ErrDecrypt {
			t.Fatalf("mutation at %d succeeded: %v", idx, err)
		}
	})
}
