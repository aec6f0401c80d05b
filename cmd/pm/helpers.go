package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	cr "github.com/Avdushin/pm/internal/crypto"
	"github.com/Avdushin/pm/internal/entry"
	"github.com/Avdushin/pm/internal/platform"
	"github.com/Avdushin/pm/internal/session"
	"github.com/Avdushin/pm/internal/totp"
	"github.com/Avdushin/pm/internal/unlock"
	"github.com/Avdushin/pm/internal/vault"
)

func (a *app) loadConfig() (*vault.Config, error) {
	cfg, err := vault.Load(a.store.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("password store does not exist, run `pm init` first")
		}
		return nil, err
	}
	return cfg, nil
}

func (a *app) sessionCache() *session.Cache {
	return session.New(platform.RuntimeDir())
}

// masterKey runs the unlock orchestration for a command. The caller must
// Destroy the returned secret.
func (a *app) masterKey(cfg *vault.Config) (*cr.Secret, error) {
	o := &unlock.Orchestrator{
		Config:   cfg,
		Cache:    a.sessionCache(),
		Prompter: terminalPrompter{},
		TTL:      session.DefaultTTL,
	}
	return o.MasterKey()
}

// keyFromOTP rebuilds a TOTP key from a stored sub-record.
func keyFromOTP(rec *entry.OTP) (*totp.Key, error) {
	secret, err := totp.DecodeBase32(rec.Secret)
	if err != nil {
		return nil, err
	}
	k := &totp.Key{
		Secret:    secret,
		Digits:    rec.Digits,
		Period:    uint64(rec.Period),
		Algorithm: totp.SHA1,
		Issuer:    rec.Issuer,
		Label:     rec.Label,
	}
	if k.Digits == 0 {
		k.Digits = totp.DefaultDigits
	}
	if k.Period == 0 {
		k.Period = totp.DefaultPeriod
	}
	if rec.Algo != "" {
		k.Algorithm = totp.Algorithm(strings.ToUpper(rec.Algo))
	}
	return k, nil
}

func printEntry(e *entry.Entry) {
	fmt.Printf("Title:    %s\n", e.Title)
	if e.Username != "" {
		fmt.Printf("Username: %s\n", e.Username)
	}
	fmt.Printf("Password: %s\n", e.Password)
	if e.URL != "" {
		fmt.Printf("URL:      %s\n", e.URL)
	}
	if e.Notes != "" {
		fmt.Printf("Notes:    %s\n", e.Notes)
	}
	if e.OTP != nil {
		fmt.Printf("OTP:      %s, %d digits, %ds period\n", e.OTP.Algo, e.OTP.Digits, e.OTP.Period)
	}
	fmt.Printf("Created:  %s\n", e.CreatedAt)
	fmt.Printf("Updated:  %s\n", e.UpdatedAt)
}
