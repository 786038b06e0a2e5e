// Package recv is the HTTP endpoint that validates and stores uploaded
// model files.
package recv

import (
	"crypto/tls"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/dorian305/3D-Model-Viewer/internal/config"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/constants"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/intake"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/ledger"
	mvutils "github.com/dorian305/3D-Model-Viewer/internal/meshview/utils"
	"github.com/dorian305/3D-Model-Viewer/internal/models"
	"github.com/dorian305/3D-Model-Viewer/internal/utils"
)

// Broadcaster receives every upload event. *live.Hub satisfies it.
type Broadcaster interface {
	Broadcast(ev models.Event)
}

type UploadReceiver struct {
	cert        tls.Certificate
	identity    models.ServerInfo
	webServer   *fiber.App
	cfg         config.ServerConfig
	rules       intake.Rules
	maxSize     int64
	expectedPin string
	ledger      *ledger.Ledger
	hub         Broadcaster
}

func NewUploadReceiver(cfg config.ServerConfig, rules intake.Rules) *UploadReceiver {
	maxSize := cfg.MaxUploadSize
	if maxSize <= 0 {
		maxSize = constants.MaxUploadSize
	}
	if cfg.Addr == "" {
		cfg.Addr = constants.DefaultAddr
	}

	return &UploadReceiver{
		identity:    models.NewServerInfo(cfg.Name, rules.Allowed, rules.Models, maxSize),
		webServer:   mvutils.NewWebServer(maxSize),
		cfg:         cfg,
		rules:       rules,
		maxSize:     maxSize,
		expectedPin: cfg.PIN,
	}
}

func (ur *UploadReceiver) SetPIN(pin string) {
	ur.expectedPin = pin
}

// SetLedger makes the receiver record every upload attempt.
func (ur *UploadReceiver) SetLedger(l *ledger.Ledger) {
	ur.ledger = l
}

// SetHub makes the receiver publish upload events.
func (ur *UploadReceiver) SetHub(b Broadcaster) {
	ur.hub = b
}

// Init prepares the upload directory, the certificate when HTTPS is on, and
// the routes.
func (ur *UploadReceiver) Init() error {
	if err := os.MkdirAll(ur.cfg.UploadDir, 0o755); err != nil {
		return err
	}

	if ur.cfg.HTTPS {
		slog.Info("Generating https certificate")

		var err error
		privkeyFile := filepath.Join(filepath.Dir(ur.cfg.UploadDir), "server.key.pem")
		certFile := filepath.Join(filepath.Dir(ur.cfg.UploadDir), "server.crt")
		ur.cert, err = mvutils.LoadOrGenTLScert(privkeyFile, certFile)
		if err != nil {
			return err
		}

		ur.identity.Fingerprint = utils.SHA256ofCert(ur.cert.Leaf)
		slog.Info("Certificate ready", "fingerprint", ur.identity.Fingerprint)
	}

	ur.routes()
	return nil
}

func (ur *UploadReceiver) routes() {
	server := ur.webServer
	server.Post(constants.UploadPath, ur.uploadHandler)
	server.Delete(constants.UploadsPath, ur.clearHandler)
	server.Get(constants.UploadsPath, ur.listHandler)
	server.Get(constants.InfoPath, ur.infoHandler)

	// GET and HEAD, the latter is what the material probe issues
	server.Static(constants.UploadDirPath, ur.cfg.UploadDir)
	if ur.cfg.ExampleDir != "" {
		server.Static(constants.ExampleDirPath, ur.cfg.ExampleDir)
	}
}

// App exposes the fiber app, mostly for tests.
func (ur *UploadReceiver) App() *fiber.App {
	return ur.webServer
}

// Info is what the info endpoint answers with.
func (ur *UploadReceiver) Info() models.ServerInfo {
	return ur.identity
}

func (ur *UploadReceiver) Start() error {
	slog.Info("Waitting for uploads (Ctrl-C to terminate)", "addr", ur.cfg.Addr, "dir", ur.cfg.UploadDir)

	if ur.cfg.HTTPS {
		return ur.webServer.ListenTLSWithCertificate(ur.cfg.Addr, ur.cert)
	}
	return ur.webServer.Listen(ur.cfg.Addr)
}

// Serve accepts uploads on an existing listener.
func (ur *UploadReceiver) Serve(ln net.Listener) error {
	slog.Info("Waitting for uploads", "addr", ln.Addr().String(), "dir", ur.cfg.UploadDir)

	if ur.cfg.HTTPS {
		ln = tls.NewListener(ln, &tls.Config{Certificates: []tls.Certificate{ur.cert}})
	}
	return ur.webServer.Listener(ln)
}

func (ur *UploadReceiver) Stop() error {
	slog.Info("Stop receiving")
	return ur.webServer.Shutdown()
}
