package main

import (
	"io"

	"github.com/Goofygiraffe06/authgate/internal/config"
	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var logCloser io.Closer

	cmd := &cobra.Command{
		Use:           "authgate",
		Short:         "Registration, verification and sign-in API in front of a managed user pool",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := logging.InitLogger(config.LogFile())
			if err != nil {
				return err
			}
			logCloser = c
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
			if logCloser != nil {
				_ = logCloser.Close()
			}
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newUserCmd())
	return cmd
}
