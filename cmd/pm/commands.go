package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	cr "github.com/Avdushin/pm/internal/crypto"
	"github.com/Avdushin/pm/internal/entry"
	"github.com/Avdushin/pm/internal/password"
	"github.com/Avdushin/pm/internal/platform"
	"github.com/Avdushin/pm/internal/store"
	"github.com/Avdushin/pm/internal/vault"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the password store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.store.Exists() {
				fmt.Printf("Store already exists at: %s\n", a.store.Root())
				return nil
			}

			p := terminalPrompter{}
			pass, err := p.ReadPassphrase("New master password: ")
			if err != nil {
				return err
			}
			defer cr.Zero(pass)
			confirm, err := p.ReadPassphrase("Confirm master password: ")
			if err != nil {
				return err
			}
			defer cr.Zero(confirm)
			if !bytes.Equal(pass, confirm) {
				return errors.New("passwords do not match")
			}

			cfg, mk, err := vault.Initialize(pass)
			if err != nil {
				return err
			}
			defer mk.Destroy()

			if err := a.store.Init(); err != nil {
				return err
			}
			if err := cfg.Save(a.store.ConfigPath()); err != nil {
				return err
			}
			fmt.Printf("Initialized store at %s\n", a.store.Root())
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := store.ValidateName(name); err != nil {
				return err
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			mk, err := a.masterKey(cfg)
			if err != nil {
				return err
			}
			defer mk.Destroy()

			e := entry.New(name)
			if !force {
				if _, err := a.store.Read(name); err == nil {
					return fmt.Errorf("%w (use --force to overwrite)", store.ErrExists)
				}
			} else if old, err := a.store.ReadEntry(name, mk.Bytes()); err == nil {
				e.CreatedAt = old.CreatedAt
				e.OTP = old.OTP
			}

			if e.Username, err = promptLine("Username (optional): "); err != nil {
				return err
			}
			pw, err := terminalPrompter{}.ReadPassphrase("Password (leave empty to generate): ")
			if err != nil {
				return err
			}
			if len(pw) == 0 {
				generated, err := password.Generate(password.DefaultPolicy())
				if err != nil {
					return err
				}
				e.Password = generated
			} else {
				e.Password = string(pw)
				cr.Zero(pw)
			}
			if e.URL, err = promptLine("URL (optional): "); err != nil {
				return err
			}
			if e.Notes, err = promptLine("Notes (optional): "); err != nil {
				return err
			}
			e.Touch()

			if err := a.store.WriteEntry(e, mk.Bytes(), force); err != nil {
				return err
			}
			fmt.Printf("Saved entry %s\n", name)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing entry")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var passwordOnly, asJSON bool
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Decrypt and print an entry",
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
			switch {
			case asJSON:
				out, err := json.MarshalIndent(e, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			case passwordOnly:
				fmt.Println(e.Password)
			default:
				printEntry(e)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&passwordOnly, "password-only", false, "print only the password")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the entry as JSON")
	return cmd
}

func newLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [prefix]",
		Short: "List entries as a tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			names, err := a.store.List(prefix)
			if err != nil {
				return err
			}
			printTree(names)
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed entry %s\n", args[0])
			return nil
		},
	}
}

func newClipCmd(a *app) *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "clip <name>",
		Short: "Copy a field to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if field != "password" && field != "username" {
				return fmt.Errorf("unknown field %q (want password or username)", field)
			}
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
			value := e.Password
			label := "Password"
			if field == "username" {
				value = e.Username
				label = "Username"
			}
			if err := platform.NewClipboard().Set(value); err != nil {
				return err
			}
			fmt.Printf("%s copied to clipboard.\n", label)
			return nil
		},
	}
	cmd.Flags().StringVar(&field, "field", "password", "field to copy (password|username)")
	return cmd
}

func newPasswdCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the master passphrase",
		Long: `Change the master passphrase. Only the master-key wrap in config.json is
rewritten; entry files are untouched and stay readable.`,
		Args: cobra.NoArgs,
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

			p := terminalPrompter{}
			next, err := p.ReadPassphrase("New master password: ")
			if err != nil {
				return err
			}
			defer cr.Zero(next)
			confirm, err := p.ReadPassphrase("Confirm master password: ")
			if err != nil {
				return err
			}
			defer cr.Zero(confirm)
			if !bytes.Equal(next, confirm) {
				return errors.New("passwords do not match")
			}

			if err := cfg.Rewrap(mk, next); err != nil {
				return err
			}
			if err := cfg.Save(a.store.ConfigPath()); err != nil {
				return err
			}
			// The cached key is still the same MK, but dropping it forces the
			// next command to prove the new passphrase.
			_ = a.sessionCache().Invalidate()
			fmt.Println("Master passphrase changed.")
			return nil
		},
	}
}
