package crypto

import (
	"encoding/base64"
	"encoding/json"
)

// EnvelopeVersion is the only on-disk envelope format in the wild.
const EnvelopeVersion = 1

// Envelope is the per-file encryption record: a fresh random nonce plus the
// AEAD output (ciphertext||tag), both base64. The codec is pure; persistence
// belongs to the store.
type Envelope struct {
	Version    int    `json:"version"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// SealEnvelope encrypts plaintext under key with a freshly sampled nonce.
// The AAD is empty for version 1 records; the parameter stays so a later
// version can bind the entry path without a format change.
func SealEnvelope(key, plaintext, aad []byte) (*Envelope, error) {
	nonce, err := NewNonce()
	if err != nil {
		return nil, err
	}
	ct, err := SealX(key, nonce, plaintext, aad)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Version:    EnvelopeVersion,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ct),
	}, nil
}

// Open decrypts the envelope. A wrong version, malformed base64, bad nonce
// length or failed tag all collapse to ErrDecrypt.
func (e *Envelope) Open(key, aad []byte) ([]byte, error) {
	if e.Version != EnvelopeVersion {
		return nil, ErrDecrypt
	}
	nonce, err := base64.StdEncoding.DecodeString(e.Nonce)
	if err != nil {
		return nil, ErrDecrypt
	}
	ct, err := base64.StdEncoding.DecodeString(e.Ciphertext)
	if err != nil {
		return nil, ErrDecrypt
	}
	return OpenX(key, nonce, ct, aad)
}

// Marshal renders the canonical on-disk JSON.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// ParseEnvelope reads an envelope back from its on-disk JSON.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
