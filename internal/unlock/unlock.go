// Package unlock coordinates how a command obtains the master key: session
// cache first, then up to three passphrase prompts against the config record,
// writing the cache back on success.
package unlock

import (
	"errors"
	"time"

	cr "github.com/Avdushin/pm/internal/crypto"
	"github.com/Avdushin/pm/internal/session"
	"github.com/Avdushin/pm/internal/vault"
)

const MaxAttempts = 3

// Prompter reads a passphrase without echo. The returned bytes are owned by
// the orchestrator, which wipes them once the unwrap attempt returns, that is
// after both the KEK derivation and the master-key decryption.
type Prompter interface {
	ReadPassphrase(prompt string) ([]byte, error)
}

type Orchestrator struct {
	Config   *vault.Config
	Cache    *session.Cache
	Prompter Prompter
	TTL      time.Duration
}

// MasterKey runs the unlock state machine. On a cache miss it prompts at most
// MaxAttempts times; the final failure is reported as vault.ErrBadPassphrase
// with no indication of which attempt failed how.
func (o *Orchestrator) MasterKey() (*cr.Secret, error) {
	if o.Cache != nil {
		if mk := o.Cache.Get(); mk != nil {
			return cr.NewSecret(mk), nil
		}
	}

	for attempt := 0; attempt < MaxAttempts; attempt++ {
		pass, err := o.Prompter.ReadPassphrase("Master password: ")
		if err != nil {
			return nil, err
		}
		mk, err := o.Config.Unwrap(pass)
		cr.Zero(pass)
		if err == nil {
			o.writeCache(mk)
			return mk, nil
		}
		if !errors.Is(err, vault.ErrBadPassphrase) {
			return nil, err
		}
	}
	return nil, vault.ErrBadPassphrase
}

// writeCache is best-effort: a failure to persist the session never fails the
// command that just unlocked successfully.
func (o *Orchestrator) writeCache(mk *cr.Secret) {
	if o.Cache == nil {
		return
	}
	ttl := o.TTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	_ = o.Cache.Put(mk.Bytes(), ttl)
}
