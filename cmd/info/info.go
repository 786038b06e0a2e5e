package info

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dorian305/3D-Model-Viewer/internal/config"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/notify"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/send"
)

var endpoint string

var Cmd = &cobra.Command{
	Use:   "info",
	Short: "Show what a server accepts",
	Long:  "Show what a server accepts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context()).Client
		if cmd.Flags().Changed("endpoint") {
			cfg.Endpoint = endpoint
		}

		d, err := send.NewDispatcher(cfg, notify.LogNotifier{})
		if err != nil {
			return err
		}

		si, err := d.Info(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("%s (v%s) at %s\n", si.Name, si.Version, d.Endpoint())
		fmt.Printf("  allowed:  %s\n", strings.Join(si.Allowed, " "))
		fmt.Printf("  models:   %s\n", strings.Join(si.Models, " "))
		fmt.Printf("  max size: %d MiB\n", si.MaxUploadSize>>20)
		if si.Fingerprint != "" {
			fmt.Printf("  sha256:   %s\n", si.Fingerprint)
		}
		return nil
	},
}

func init() {
	Cmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "Base URL of the meshview server")
}
