// Package send uploads a validated batch to the receiver, one file at a time.
package send

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/dorian305/3D-Model-Viewer/internal/config"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/constants"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/notify"
	"github.com/dorian305/3D-Model-Viewer/internal/models"
	"github.com/dorian305/3D-Model-Viewer/internal/utils"
)

const defaultTimeout = 60 * time.Second

// UploadError is the failure of one file of a batch. Code is the server's
// error code, or -1 when the response could not be understood.
type UploadError struct {
	Code    int
	File    string
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %s", e.File, e.Message)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

func (e *UploadError) Title() string {
	if e.Code <= 0 {
		return "ERROR"
	}
	return fmt.Sprintf("ERROR %d", e.Code)
}

// Outcome is what a fully successful dispatch hands on to the loader.
type Outcome struct {
	Model   string
	Results []models.UploadResult
}

type Dispatcher struct {
	endpoint    *url.URL
	pin         string
	timeout     time.Duration
	fingerprint string
	notifier    notify.Notifier
}

func NewDispatcher(cfg config.ClientConfig, n notify.Notifier) (*Dispatcher, error) {
	endpoint, err := url.Parse(strings.TrimSuffix(cfg.Endpoint, "/"))
	if err != nil {
		return nil, err
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("unsupported endpoint scheme %q", endpoint.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if n == nil {
		n = notify.LogNotifier{}
	}

	return &Dispatcher{
		endpoint:    endpoint,
		pin:         cfg.PIN,
		timeout:     timeout,
		fingerprint: cfg.Fingerprint,
		notifier:    n,
	}, nil
}

// Endpoint is the base URL uploads go to.
func (d *Dispatcher) Endpoint() string {
	return d.endpoint.String()
}

// Dispatch uploads every file of batch in order. The first failure aborts
// the rest and is reported through the notifier. After the last success the
// batch is cleared and the progress dialog closed. ctx is only checked
// between files.
func (d *Dispatcher) Dispatch(ctx context.Context, batch *models.UploadBatch, model models.FileMeta) (Outcome, error) {
	if err := d.verifyPeer(); err != nil {
		d.notifier.Error("ERROR", err.Error(), "")
		return Outcome{}, err
	}

	total := batch.Len()
	out := Outcome{Model: model.Filename}

	for i, f := range batch.Files {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		d.notifier.Progress(fmt.Sprintf("Uploading %s (%d of %d)", f.Filename, i+1, total))
		slog.Debug("Uploading", "file", f.Filename, "index", i+1, "total", total)

		res, err := d.sendFile(f)
		if err != nil {
			var uerr *UploadError
			if !errors.As(err, &uerr) {
				uerr = &UploadError{Code: -1, File: f.Filename, Message: err.Error(), Err: err}
			}
			slog.Error("Fail to send file", "file", f.Filename, "error", uerr)
			d.notifier.Error(uerr.Title(), uerr.Message, uerr.File)
			return out, uerr
		}

		d.notifier.Progress(res.SuccessMessage)
		out.Results = append(out.Results, res)
	}

	batch.Clear()
	d.notifier.Close()
	return out, nil
}

func (d *Dispatcher) sendFile(f models.FileMeta) (models.UploadResult, error) {
	content, err := f.ReadContent()
	if err != nil {
		return models.UploadResult{}, &UploadError{Code: -1, File: f.Filename, Message: err.Error(), Err: constants.ErrFileIO}
	}

	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	req := agent.Request()
	d.prepareUri(req, constants.UploadPath)
	req.Header.SetMethod(fiber.MethodPost)
	if d.pin != "" {
		req.URI().QueryArgs().Add("pin", d.pin)
	}
	agent.Timeout(d.timeout)
	if err := agent.Parse(); err != nil {
		return models.UploadResult{}, err
	}

	agent.FileData(&fiber.FormFile{
		Fieldname: constants.UploadField,
		Name:      f.Filename,
		Content:   content,
	}).MultipartForm(nil)

	status, body, errs := agent.InsecureSkipVerify().Bytes()
	if len(errs) != 0 {
		return models.UploadResult{}, errs[0]
	}

	if err := constants.ParseStatus(status); err != nil {
		code := constants.Code(err)
		msg := err.Error()
		if code > 0 {
			msg = "ERROR: " + constants.Message(code, nil, constants.MaxUploadSize)
		}
		return models.UploadResult{}, &UploadError{Code: code, File: f.Filename, Message: msg, Err: err}
	}

	var res models.UploadResult
	if err := json.Unmarshal(body, &res); err != nil {
		return models.UploadResult{}, &UploadError{
			Code:    -1,
			File:    f.Filename,
			Message: constants.ErrMalformedResponse.Error(),
			Err:     constants.ErrMalformedResponse,
		}
	}

	if !res.OK() {
		file := res.File
		if file == "" {
			file = f.Filename
		}
		return res, &UploadError{
			Code:    res.ErrorCode,
			File:    file,
			Message: res.ErrorMessage,
			Err:     constants.ParseError(res.ErrorCode),
		}
	}

	return res, nil
}

// Clear asks the receiver to delete every stored upload and returns how
// many files went away.
func (d *Dispatcher) Clear(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	req := agent.Request()
	d.prepareUri(req, constants.UploadsPath)
	req.Header.SetMethod(fiber.MethodDelete)
	if d.pin != "" {
		req.URI().QueryArgs().Add("pin", d.pin)
	}
	agent.Timeout(d.timeout)
	if err := agent.Parse(); err != nil {
		return 0, err
	}

	status, b, errs := agent.InsecureSkipVerify().Bytes()
	if len(errs) != 0 {
		return 0, errs[0]
	}
	if err := constants.ParseStatus(status); err != nil {
		return 0, err
	}

	var body struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal(b, &body); err != nil {
		return 0, constants.ErrMalformedResponse
	}
	return body.Removed, nil
}

// Info fetches the receiver's description.
func (d *Dispatcher) Info(ctx context.Context) (models.ServerInfo, error) {
	var info models.ServerInfo
	if err := ctx.Err(); err != nil {
		return info, err
	}

	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	req := agent.Request()
	d.prepareUri(req, constants.InfoPath)
	req.Header.SetMethod(fiber.MethodGet)
	agent.Timeout(d.timeout)
	if err := agent.Parse(); err != nil {
		return info, err
	}

	status, b, errs := agent.InsecureSkipVerify().Bytes()
	if len(errs) != 0 {
		return info, errs[0]
	}
	if err := constants.ParseStatus(status); err != nil {
		return info, err
	}
	if err := json.Unmarshal(b, &info); err != nil {
		return info, constants.ErrMalformedResponse
	}
	return info, nil
}

// verifyPeer pins the receiver's certificate when a fingerprint is set.
func (d *Dispatcher) verifyPeer() error {
	if d.endpoint.Scheme != "https" || d.fingerprint == "" {
		return nil
	}

	addr := d.endpoint.Host
	if d.endpoint.Port() == "" {
		addr = net.JoinHostPort(d.endpoint.Hostname(), "443")
	}
	return utils.VerifyFingerprint(addr, d.fingerprint, d.timeout)
}

func (d *Dispatcher) prepareUri(req *fasthttp.Request, path string) {
	req.Header.SetUserAgent("meshview")
	req.SetRequestURI(d.endpoint.String() + path)
}
