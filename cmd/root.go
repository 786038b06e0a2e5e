package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dorian305/3D-Model-Viewer/cmd/clean"
	"github.com/dorian305/3D-Model-Viewer/cmd/info"
	"github.com/dorian305/3D-Model-Viewer/cmd/serve"
	"github.com/dorian305/3D-Model-Viewer/cmd/upload"
	"github.com/dorian305/3D-Model-Viewer/cmd/view"
	"github.com/dorian305/3D-Model-Viewer/cmd/watch"
	"github.com/dorian305/3D-Model-Viewer/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "meshview",
	Short: "Upload and view 3D models",
	Long:  "Upload OBJ, FBX and STL models to a meshview server and inspect them in the terminal",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		slog.SetDefault(config.NewLogger(os.Stderr, cfg.Log))
		cmd.SetContext(config.NewContext(cmd.Context(), cfg))
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		slog.Error("Fail to execute", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file (default ./meshview.yaml or $MESHVIEW_CONFIG)")

	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(upload.Cmd)
	rootCmd.AddCommand(view.Cmd)
	rootCmd.AddCommand(watch.Cmd)
	rootCmd.AddCommand(clean.Cmd)
	rootCmd.AddCommand(info.Cmd)
}
