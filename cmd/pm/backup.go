package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Avdushin/pm/internal/backup"
)

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive the password store",
	}

	create := &cobra.Command{
		Use:   "create [name[.zip|.tar.gz]]",
		Short: "Create a backup archive of the store root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			path := backup.ResolveName(arg, time.Now())
			if err := backup.Create(a.store.Root(), path); err != nil {
				return err
			}
			fmt.Printf("Backup created at %s\n", path)
			return nil
		},
	}

	cmd.AddCommand(create, newLockCmd(a))
	return cmd
}

func newLockCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Forget the cached master key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessionCache().Invalidate(); err != nil {
				return err
			}
			fmt.Println("Session locked.")
			return nil
		},
	}
}
