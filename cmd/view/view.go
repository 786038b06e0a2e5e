package view

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dorian305/3D-Model-Viewer/internal/config"
	"github.com/dorian305/3D-Model-Viewer/internal/loader"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/constants"
	"github.com/dorian305/3D-Model-Viewer/internal/tui"
	"github.com/dorian305/3D-Model-Viewer/internal/utils"
	mview "github.com/dorian305/3D-Model-Viewer/internal/view"
)

var (
	source     string
	examples   bool
	background string
	fov        float64
	once       bool
	cols       int
	rows       int
)

var Cmd = &cobra.Command{
	Use:   "view <model>",
	Short: "View a model",
	Long:  "View a model from a local directory, a URL or the server's uploads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if cmd.Flags().Changed("background") {
			cfg.Viewer.Background = background
		}
		if cmd.Flags().Changed("fov") {
			cfg.Viewer.Fov = fov
		}

		location := source
		if location == "" {
			base := strings.TrimSuffix(cfg.Client.Endpoint, "/")
			if examples {
				location = base + constants.ExampleDirPath
			} else {
				location = base + constants.UploadDirPath
			}
		}

		src := loader.NewSource(location, cfg.Client.Timeout)
		l := loader.New(src, loader.NewObjectCache(cfg.Viewer.CacheSize))
		session := mview.NewSession(cfg.Viewer, 1)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			<-utils.WaitForSignal()
			cancel()
		}()

		if !once {
			return tui.Run(ctx, tui.Options{Session: session, Loader: l, File: args[0]})
		}

		obj, err := l.Load(ctx, args[0])
		if err != nil {
			var lerr *loader.LoadError
			if errors.As(err, &lerr) {
				return errors.New(l.State().String())
			}
			return err
		}
		session.Handoff(obj, args[0])
		return tui.Snapshot(os.Stdout, session, cols, rows)
	},
}

func init() {
	Cmd.PersistentFlags().StringVarP(&source, "source", "s", "", "Directory or URL the model is read from (default: the server's uploads)")
	Cmd.PersistentFlags().BoolVar(&examples, "examples", false, "Read from the server's example models")
	Cmd.PersistentFlags().StringVarP(&background, "background", "b", "", "Background color #RRGGBB")
	Cmd.PersistentFlags().Float64Var(&fov, "fov", 75, "Vertical field of view in degrees")
	Cmd.PersistentFlags().BoolVar(&once, "once", false, "Print a single frame instead of the interactive viewer")
	Cmd.PersistentFlags().IntVar(&cols, "cols", 80, "Frame width for --once")
	Cmd.PersistentFlags().IntVar(&rows, "rows", 24, "Frame height for --once")
}
