package crypto

import "github.com/awnumar/memguard"

// Secret owns a piece of key material for a bounded scope. The backing pages
// are locked against swapping and wiped when the scope ends. The master key
// is held in this type; passphrases, KEKs and decrypted payloads are not: they
// live in plain slices or arrays that their holders clear with Zero or Zero32.
type Secret struct {
	buf *memguard.LockedBuffer
}

// NewSecret moves b into a locked buffer. The source slice is wiped.
func NewSecret(b []byte) *Secret {
	return &Secret{buf: memguard.NewBufferFromBytes(b)}
}

// NewRandomSecret fills a locked buffer with n bytes from the system CSPRNG.
func NewRandomSecret(n int) *Secret {
	return &Secret{buf: memguard.NewBufferRandom(n)}
}

// Bytes exposes the underlying material. The slice aliases locked memory and
// must not outlive the Secret.
func (s *Secret) Bytes() []byte {
	return s.buf.Bytes()
}

// Destroy wipes and releases the buffer. Safe to call more than once.
func (s *Secret) Destroy() {
	if s != nil && s.buf != nil {
		s.buf.Destroy()
	}
}

// CatchInterrupt installs a signal handler that wipes all live Secrets before
// the process dies, so the zeroization path also runs on ^C.
func CatchInterrupt() {
	memguard.CatchInterrupt()
}

// Purge wipes every live Secret. Called on normal process exit.
func Purge() {
	memguard.Purge()
}
