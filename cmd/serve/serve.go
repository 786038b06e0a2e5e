package serve

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/dorian305/3D-Model-Viewer/internal/config"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/intake"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/ledger"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/live"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/recv"
	"github.com/dorian305/3D-Model-Viewer/internal/utils"
)

var (
	addr         string
	liveAddr     string
	uploadDir    string
	exampleDir   string
	supportHttps bool
	pin          string
	noLedger     bool
)

var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Receive model uploads",
	Long:  "Receive model uploads, serve them back for viewing and publish upload events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context()).Server
		flags := cmd.Flags()
		if flags.Changed("addr") {
			cfg.Addr = addr
		}
		if flags.Changed("live-addr") {
			cfg.LiveAddr = liveAddr
		}
		if flags.Changed("dir") {
			cfg.UploadDir = uploadDir
		}
		if flags.Changed("examples") {
			cfg.ExampleDir = exampleDir
		}
		if flags.Changed("https") {
			cfg.HTTPS = supportHttps
		}
		if flags.Changed("pin") {
			cfg.PIN = pin
		}

		intakeCfg := config.FromContext(cmd.Context()).Intake
		recver := recv.NewUploadReceiver(cfg, intake.NewRules(intakeCfg.Allowed, intakeCfg.Models))

		if !noLedger && cfg.LedgerPath != "" {
			l, err := ledger.Open(cfg.LedgerPath)
			if err != nil {
				return err
			}
			defer l.Close()
			recver.SetLedger(l)
		}

		var hub *live.Hub
		if cfg.LiveAddr != "" {
			hub = live.NewHub()
			recver.SetHub(hub)
		}

		if err := recver.Init(); err != nil {
			slog.Error("Failed to initialize receiver", "error", err)
			return err
		}

		logReachable(cfg.Addr, cfg.HTTPS)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := recver.Start()
			if err != nil {
				slog.Error("Fail to start server", "error", err)
				return
			}
		}()

		if hub != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				slog.Info("Live feed listening", "addr", cfg.LiveAddr)
				if err := hub.Start(cfg.LiveAddr); err != nil {
					slog.Error("Fail to start live feed", "error", err)
				}
			}()
		}

		<-utils.WaitForSignal()

		recver.Stop()
		if hub != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			hub.Stop(ctx)
		}
		wg.Wait()
		return nil
	},
}

// logReachable lists the local addresses a wildcard listener answers on.
func logReachable(addr string, https bool) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || (host != "" && host != "0.0.0.0") {
		return
	}
	ips, err := utils.GetMyIPv4Addr()
	if err != nil {
		slog.Warn("Fail to list local addresses", "error", err)
		return
	}
	scheme := "http://"
	if https {
		scheme = "https://"
	}
	for _, ip := range ips {
		slog.Info("Reachable at", "endpoint", scheme+net.JoinHostPort(ip.String(), port))
	}
}

func init() {
	Cmd.PersistentFlags().StringVarP(&addr, "addr", "a", "", "Listen address for uploads")
	Cmd.PersistentFlags().StringVar(&liveAddr, "live-addr", "", "Listen address for the live feed, empty disables it")
	Cmd.PersistentFlags().StringVarP(&uploadDir, "dir", "d", "", "Directory for uploaded files")
	Cmd.PersistentFlags().StringVarP(&exampleDir, "examples", "e", "", "Directory served as example models")
	Cmd.PersistentFlags().BoolVar(&supportHttps, "https", false, "Do https")
	Cmd.PersistentFlags().StringVarP(&pin, "pin", "p", "", "PIN code")
	Cmd.PersistentFlags().BoolVar(&noLedger, "no-ledger", false, "Do not record uploads")
}
