package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/yt-digest/internal/config"
	"github.com/codebuildervaibhav/yt-digest/internal/storage"
)

func newDriveAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drive-auth",
		Short: "Authorize the Google Drive note mirror and store its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// API keys are not needed here, so the config is not validated
			cfg, err := config.Read(configPath, envFile)
			if err != nil {
				return err
			}
			drive := driveConfig(cfg)
			if drive.CredentialsFile == "" || drive.TokenFile == "" {
				return errors.New("notes.drive.credentials_file and notes.drive.token_file must be set")
			}

			if err := storage.AuthorizeDrive(cmd.Context(), drive.CredentialsFile, drive.TokenFile, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", drive.TokenFile)
			return nil
		},
	}
}
