package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Avdushin/pm/internal/entry"
	"github.com/Avdushin/pm/internal/platform"
	"github.com/Avdushin/pm/internal/totp"
)

func newOtpCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otp",
		Short: "Manage TOTP second factors",
	}
	cmd.AddCommand(newOtpAddCmd(a), newOtpShowCmd(a), newOtpClipCmd(a))
	return cmd
}

func newOtpAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Attach a TOTP secret to an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			mk, err := a.masterKey(cfg)
			if err != nil {
				return err
			}
			defer mk.Destroy()

			e, err := a.store.ReadEntry(args[0], mk.Bytes())
			if err != nil {
				return err
			}

			raw, err := promptLine("Base32 secret or otpauth:// URI: ")
			if err != nil {
				return err
			}
			k, err := totp.ParseSecret(raw)
			if err != nil {
				return err
			}
			e.OTP = &entry.OTP{
				Type:   "totp",
				Secret: totp.EncodeBase32(k.Secret),
				Period: uint(k.Period),
				Digits: k.Digits,
				Algo:   string(k.Algorithm),
				Issuer: k.Issuer,
				Label:  k.Label,
			}
			e.Touch()
			if err := a.store.WriteEntry(e, mk.Bytes(), true); err != nil {
				return err
			}
			fmt.Printf("Attached TOTP to %s\n", args[0])
			return nil
		},
	}
}

func (a *app) currentCode(name string) (code string, remaining uint64, err error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return "", 0, err
	}
	mk, err := a.masterKey(cfg)
	if err != nil {
		return "", 0, err
	}
	defer mk.Destroy()

	e, err := a.store.ReadEntry(name, mk.Bytes())
	if err != nil {
		return "", 0, err
	}
	if e.OTP == nil {
		return "", 0, fmt.Errorf("entry %s has no OTP secret", name)
	}
	k, err := keyFromOTP(e.OTP)
	if err != nil {
		return "", 0, err
	}
	now := time.Now()
	return k.Code(now), k.Remaining(now), nil
}

func newOtpShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print the current TOTP code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, remaining, err := a.currentCode(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s (valid %ds)\n", code, remaining)
			return nil
		},
	}
}

func newOtpClipCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clip <name>",
		Short: "Copy the current TOTP code to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, remaining, err := a.currentCode(args[0])
			if err != nil {
				return err
			}
			if err := platform.NewClipboard().Set(code); err != nil {
				return err
			}
			fmt.Printf("TOTP code copied to clipboard (valid %ds).\n", remaining)
			return nil
		},
	}
}
