package watch

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dorian305/3D-Model-Viewer/internal/config"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/constants"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/live"
	"github.com/dorian305/3D-Model-Viewer/internal/models"
	"github.com/dorian305/3D-Model-Viewer/internal/utils"
)

var feedURL string

var (
	acceptedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	clearedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
)

var Cmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow upload events of a server",
	Long:  "Follow upload events of a server",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := feedURL
		if url == "" {
			url = liveURL(config.FromContext(cmd.Context()).Server.LiveAddr)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			<-utils.WaitForSignal()
			cancel()
		}()

		return live.Subscribe(ctx, url, func(ev models.Event) {
			fmt.Println(formatEvent(ev))
		})
	},
}

// liveURL turns a listen address into something a client can dial.
func liveURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "ws://" + addr + constants.LivePath
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "ws://" + net.JoinHostPort(host, port) + constants.LivePath
}

func formatEvent(ev models.Event) string {
	ts := ev.Time.Local().Format("15:04:05")
	switch ev.Type {
	case models.EventUploadAccepted:
		return fmt.Sprintf("%s %s %s", ts, acceptedStyle.Render("accepted"), ev.File)
	case models.EventUploadRejected:
		return fmt.Sprintf("%s %s %s (%d: %s)", ts, rejectedStyle.Render("rejected"), ev.File, ev.Code,
			strings.TrimPrefix(ev.Message, "ERROR: "))
	case models.EventUploadsCleared:
		return fmt.Sprintf("%s %s %s", ts, clearedStyle.Render("cleared"), ev.Message)
	default:
		return fmt.Sprintf("%s %s %s", ts, ev.Type, ev.File)
	}
}

func init() {
	Cmd.PersistentFlags().StringVarP(&feedURL, "url", "u", "", "Live feed URL (default: derived from server.live_addr)")
}
