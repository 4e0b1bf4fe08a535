package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackskhakis/gameyfin/internal/adapters/http/library"
)

func newLibraryCmd(rt *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "library",
		Short:             "Call the backend library API once",
		PersistentPreRunE: rt.setup,
	}

	cmd.AddCommand(
		newEnvelopeCmd(rt, library.OpScan, "Trigger a library scan",
			func(ctx context.Context, c *library.Client) (*library.Response, error) { return c.ScanLibrary(ctx) }),
		newEnvelopeCmd(rt, library.OpDownloadImages, "Trigger an image download",
			func(ctx context.Context, c *library.Client) (*library.Response, error) { return c.DownloadImages(ctx) }),
		newFilesCmd(rt),
	)
	return cmd
}

// newEnvelopeCmd prints the raw backend response. A non-2xx status still
// prints the envelope and then fails the command.
func newEnvelopeCmd(rt *cli, use, short string, call func(context.Context, *library.Client) (*library.Response, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(rt.cfg, rt.log)
			if err != nil {
				return err
			}
			resp, err := call(cmd.Context(), client)
			if resp != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n", resp.Status)
				fmt.Fprintf(cmd.OutOrStdout(), "request-id: %s\n", resp.RequestID)
				if len(resp.Body) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), string(resp.Body))
				}
			}
			return err
		},
	}
}

func newFilesCmd(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   library.OpListFiles,
		Short: "List the files known to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(rt.cfg, rt.log)
			if err != nil {
				return err
			}
			files, err := client.ListFiles(cmd.Context())
			if err != nil {
				return fmt.Errorf("list files: %w", err)
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}
