// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/crf/cmd/crf/cli"
	"github.com/bureau-foundation/crf/lib/archivefs"
)

func mountCommand(env *Environment) *cli.Command {
	var (
		archive    archiveFlags
		allowOther bool
	)

	return &cli.Command{
		Name:    "mount",
		Summary: "Mount an archive as a read-only filesystem",
		Description: `Mount the archive with FUSE. Entries appear under alias/ (aliases with
"/" become directories) and under id/ by content id.

Runs in the foreground until interrupted or until the mount is removed
with fusermount -u.`,
		Usage: "crf mount ARCHIVE MOUNTPOINT [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("mount", pflag.ContinueOnError)
			archive.register(flagSet)
			flagSet.BoolVar(&allowOther, "allow-other", false, "let other users read the mount (needs user_allow_other)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected an archive path and a mountpoint\n\nUsage: crf mount ARCHIVE MOUNTPOINT")
			}

			session, err := archive.start(env, "mount")
			if err != nil {
				return err
			}
			defer session.Close()

			container, err := session.open(args[0])
			if err != nil {
				return err
			}

			server, err := archivefs.Mount(archivefs.Options{
				Mountpoint: args[1],
				Container:  container,
				AllowOther: allowOther || session.config.Mount.AllowOther,
				Logger:     session.logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			unmounted := make(chan struct{})
			go func() {
				server.Wait()
				close(unmounted)
			}()

			select {
			case <-ctx.Done():
				session.logger.Info("shutting down")
				if err := server.Unmount(); err != nil {
					return fmt.Errorf("unmounting %s: %w", args[1], err)
				}
				<-unmounted
			case <-unmounted:
				session.logger.Info("filesystem unmounted externally")
			}
			return nil
		},
	}
}
