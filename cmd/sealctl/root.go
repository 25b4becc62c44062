package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"secure.paste/config"
	"secure.paste/internal/envelope"
	"secure.paste/internal/logging"
	"secure.paste/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sealctl",
	Short: "Share and retrieve sealed text against a configured store.",
	Long: `sealctl runs the share protocol directly against the store named in the
server configuration, without going through HTTP.

  sealctl share notes.txt       print a token for the file's contents
  echo hi | sealctl share       read the content from stdin
  sealctl retrieve <token>      print the content a token refers to

The master secret comes from the config file or SHARE_SECRET, exactly as
for the server, so tokens are interchangeable between the two.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var shareCmd = &cobra.Command{
	Use:   "share [file]",
	Short: "Seal content and print its token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		// Read one byte past the limit so oversized input is rejected
		// rather than silently truncated.
		content, err := io.ReadAll(io.LimitReader(in, envelope.MaxContentSize+1))
		if err != nil {
			return fmt.Errorf("reading content: %w", err)
		}

		return withProtocol(cmd.Context(), func(ctx context.Context, p *envelope.Protocol) error {
			token, err := p.Share(ctx, content)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		})
	},
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <token>",
	Short: "Print the content a token refers to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProtocol(cmd.Context(), func(ctx context.Context, p *envelope.Protocol) error {
			content, err := p.Retrieve(ctx, args[0])
			if err != nil {
				return describe(err)
			}
			_, err = cmd.OutOrStdout().Write(content)
			return err
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.AddCommand(shareCmd, retrieveCmd)
}

func withProtocol(ctx context.Context, fn func(context.Context, *envelope.Protocol) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store, log)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	p, err := envelope.FromConfig(cfg, st, log)
	if err != nil {
		return err
	}
	return fn(ctx, p)
}

// describe turns protocol errors into the short messages shown to users.
func describe(err error) error {
	switch {
	case errors.Is(err, envelope.ErrInput):
		return err
	case errors.Is(err, envelope.ErrInvalidToken):
		return errors.New("invalid token")
	case errors.Is(err, envelope.ErrNotFound):
		return errors.New("share not found")
	case errors.Is(err, envelope.ErrStorage):
		return errors.New("storage error")
	default:
		return errors.New("internal error")
	}
}
