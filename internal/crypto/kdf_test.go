package crypto

import "testing"

func TestDeriveKEKDeterministic(t *testing.T) {
	salt := randBytes(t, SaltSize)
	p := KDFParams{MemoryMiB: 8, Iterations: 1, Parallelism: 1}

	k1 := DeriveKEK([]byte("correcthorse"), salt, p)
	k2 := DeriveKEK([]byte("correcthorse"), salt, p)
	if k1 != k2 {
		t.Fatal("same inputs must derive the same KEK")
	}
}

func TestDeriveKEKDomainSeparation(t *testing.T) {
	salt := randBytes(t, SaltSize)
	p := KDFParams{MemoryMiB: 8, Iterations: 1, Parallelism: 1}
	base := DeriveKEK([]byte("correcthorse"), salt, p)

	if got := DeriveKEK([]byte("wronghorse"), salt, p); got == base {
		t.Fatal("different passphrase derived the same KEK")
	}
	if got := DeriveKEK([]byte("correcthorse"), randBytes(t, SaltSize), p); got == base {
		t.Fatal("different salt derived the same KEK")
	}
	bumped := p
	bumped.Iterations++
	if got := DeriveKEK([]byte("correcthorse"), salt, bumped); got == base {
		t.Fatal("different params derived the same KEK")
	}
}

func TestNewSaltSize(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	if len(salt) != SaltSize {
		t.Fatalf("salt length %d, want %d", len(salt), SaltSize)
	}
}
