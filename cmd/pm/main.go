// Package main provides the pm CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	cr "github.com/Avdushin/pm/internal/crypto"
	"github.com/Avdushin/pm/internal/platform"
	"github.com/Avdushin/pm/internal/store"
	"github.com/Avdushin/pm/internal/totp"
	"github.com/Avdushin/pm/internal/vault"
)

var version = "0.1.0"

// Exit codes surfaced to scripts wrapping pm.
const (
	exitOK            = 0
	exitFailure       = 1
	exitBadPassphrase = 2
	exitInvalidArg    = 3
	exitNotFound      = 4
	exitIntegrity     = 5
)

func main() {
	cr.CatchInterrupt()
	defer cr.Purge()
	if err := platform.DisableCoreDumps(); err != nil {
		fmt.Fprintln(os.Stderr, "pm: warning: cannot disable core dumps:", err)
	}

	a := &app{}
	root := newRootCmd(a)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pm:", err)
		cr.Purge()
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, vault.ErrBadPassphrase):
		return exitBadPassphrase
	case errors.Is(err, store.ErrInvalidName), errors.Is(err, totp.ErrBadSecret):
		return exitInvalidArg
	case errors.Is(err, store.ErrNotFound):
		return exitNotFound
	case errors.Is(err, cr.ErrDecrypt):
		return exitIntegrity
	default:
		return exitFailure
	}
}

type app struct {
	log     zerolog.Logger
	store   *store.Store
	verbose bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "pm",
		Short:         "pm - minimal password and TOTP vault",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.WarnLevel
			if a.verbose {
				level = zerolog.DebugLevel
			}
			a.log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).With().Timestamp().Logger()

			root, err := platform.StoreRoot()
			if err != nil {
				return err
			}
			a.store = store.Open(root, a.log)
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newInitCmd(a),
		newAddCmd(a),
		newShowCmd(a),
		newLsCmd(a),
		newRmCmd(a),
		newClipCmd(a),
		newPasswdCmd(a),
		newOtpCmd(a),
		newBackupCmd(a),
		newLockCmd(a),
	)
	return root
}
