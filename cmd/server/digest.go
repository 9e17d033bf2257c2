package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/yt-digest/internal/config"
	"github.com/codebuildervaibhav/yt-digest/internal/digest"
	"github.com/codebuildervaibhav/yt-digest/internal/storage"
	"github.com/codebuildervaibhav/yt-digest/internal/types"
)

type digestOptions struct {
	detail  string
	asJSON  bool
	saveDir string
}

func newDigestCmd() *cobra.Command {
	opts := &digestOptions{}

	cmd := &cobra.Command{
		Use:   "digest <youtube-url>",
		Short: "Generate a digest for one video and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, envFile)
			if err != nil {
				return err
			}

			// Logs go to stderr so stdout only carries the digest
			log := newLogger(cfg, cmd.ErrOrStderr())
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}

			resp, err := a.pipeline.Run(cmd.Context(), args[0], digest.ParseDetailLevel(opts.detail))
			if err != nil {
				return err
			}

			req := saveRequest(resp)
			if opts.saveDir != "" {
				saved, err := a.notes.Save(cmd.Context(), withOutputPath(req, opts.saveDir))
				if err != nil {
					return fmt.Errorf("保存に失敗しました: %w", err)
				}
				log.Info("note saved", slog.String("path", saved.Path))
			}

			return printDigest(cmd.OutOrStdout(), resp, req, opts.asJSON)
		},
	}

	cmd.Flags().StringVarP(&opts.detail, "detail", "d", "detailed", "detail level: brief, standard or detailed")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the API response as JSON")
	cmd.Flags().StringVar(&opts.saveDir, "save", "", "also save the note into this directory")
	return cmd
}

// saveRequest builds the note for a digest the same way the frontend does
func saveRequest(resp types.DigestResponse) types.SaveRequest {
	return types.SaveRequest{
		VideoID:   resp.VideoID,
		Content:   resp.Digest,
		Title:     resp.Title,
		Channel:   resp.Channel,
		Published: resp.Published,
		URL:       resp.URL,
		Thumbnail: resp.Thumbnail,
		Tags:      resp.Tags,
		Model:     resp.Model,
	}
}

func withOutputPath(req types.SaveRequest, dir string) types.SaveRequest {
	req.OutputPath = dir
	return req
}

func printDigest(w io.Writer, resp types.DigestResponse, req types.SaveRequest, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(resp)
	}

	note, err := storage.RenderNote(req, time.Now())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(note))
	return err
}
