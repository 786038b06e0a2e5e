package upload

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dorian305/3D-Model-Viewer/internal/config"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/notify"
	"github.com/dorian305/3D-Model-Viewer/internal/tui"
	"github.com/dorian305/3D-Model-Viewer/internal/utils"
)

var (
	endpoint string
	pin      string
	dropDir  string
	once     bool
	noView   bool
	cols     int
	rows     int
)

var Cmd = &cobra.Command{
	Use:   "upload [files]...",
	Short: "Upload a model with its companion files and view it",
	Long:  "Upload a model with its companion files and view it. Files come from the arguments or from a dropped directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if cmd.Flags().Changed("endpoint") {
			cfg.Client.Endpoint = endpoint
		}
		if cmd.Flags().Changed("pin") {
			cfg.Client.PIN = pin
		}
		if len(args) == 0 && dropDir == "" {
			return errors.New("File is required")
		}

		batch, err := meshview.BatchFromPaths(args...)
		if err != nil {
			return err
		}
		if dropDir != "" {
			dropped, err := meshview.BatchFromDir(dropDir)
			if err != nil {
				return err
			}
			for _, f := range dropped.Files {
				batch.Add(f)
			}
		}

		viewer, err := meshview.NewViewer(cfg, notify.NewTermNotifier(os.Stderr))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			<-utils.WaitForSignal()
			cancel()
		}()

		if _, err := viewer.Submit(ctx, batch); err != nil {
			slog.Debug("Upload aborted", "error", err)
			return err
		}

		switch {
		case noView:
			return nil
		case once:
			return tui.Snapshot(os.Stdout, viewer.Session(), cols, rows)
		default:
			return tui.Run(ctx, tui.Options{Session: viewer.Session(), Loader: viewer.Loader()})
		}
	},
}

func init() {
	Cmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "Base URL of the meshview server")
	Cmd.PersistentFlags().StringVarP(&pin, "pin", "p", "", "PIN code")
	Cmd.PersistentFlags().StringVarP(&dropDir, "drop", "d", "", "Upload every file in this directory")
	Cmd.PersistentFlags().BoolVar(&once, "once", false, "Print a single frame instead of the interactive viewer")
	Cmd.PersistentFlags().BoolVar(&noView, "no-view", false, "Only upload")
	Cmd.PersistentFlags().IntVar(&cols, "cols", 80, "Frame width for --once")
	Cmd.PersistentFlags().IntVar(&rows, "rows", 24, "Frame height for --once")
}
