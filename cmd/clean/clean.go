package clean

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dorian305/3D-Model-Viewer/internal/config"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/notify"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/send"
)

var (
	endpoint string
	pin      string
)

var Cmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete every uploaded file on the server",
	Long:  "Delete every uploaded file on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context()).Client
		if cmd.Flags().Changed("endpoint") {
			cfg.Endpoint = endpoint
		}
		if cmd.Flags().Changed("pin") {
			cfg.PIN = pin
		}

		d, err := send.NewDispatcher(cfg, notify.LogNotifier{})
		if err != nil {
			return err
		}

		removed, err := d.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d files from %s\n", removed, d.Endpoint())
		return nil
	},
}

func init() {
	Cmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "Base URL of the meshview server")
	Cmd.PersistentFlags().StringVarP(&pin, "pin", "p", "", "PIN code")
}
