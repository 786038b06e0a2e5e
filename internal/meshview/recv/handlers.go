package recv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"

	"github.com/dorian305/3D-Model-Viewer/internal/meshview/constants"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/intake"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/ledger"
	"github.com/dorian305/3D-Model-Viewer/internal/models"
	"github.com/dorian305/3D-Model-Viewer/internal/utils"
)

const successMessage = "File has been uploaded successfully."

func (ur *UploadReceiver) checkPin(c *fiber.Ctx) bool {
	return ur.expectedPin == "" || c.Query("pin") == ur.expectedPin
}

func (ur *UploadReceiver) uploadHandler(c *fiber.Ctx) error {
	if !ur.checkPin(c) {
		return c.SendStatus(401)
	}

	remote := fiberutils.CopyString(c.IP()) // strings in fiber are unsafe due to zero allocation

	fh, err := c.FormFile(constants.UploadField)
	if err != nil {
		return ur.reject(c, remote, "", 0, constants.CodeNoFile)
	}

	name := filepath.Base(fh.Filename)
	_, ext := models.SplitExt(name)

	// size outranks filename, which outranks extension
	switch {
	case fh.Size > ur.maxSize:
		return ur.reject(c, remote, name, fh.Size, constants.CodeTooLarge)
	case !intake.ValidFilename(name):
		return ur.reject(c, remote, name, fh.Size, constants.CodeBadFilename)
	case !ur.rules.IsAllowed(ext):
		return ur.reject(c, remote, name, fh.Size, constants.CodeBadExtension)
	}

	dst := filepath.Join(ur.cfg.UploadDir, name)
	if err := c.SaveFile(fh, dst); err != nil {
		slog.Error("Upload error", "remote", remote, "file", name, "error", err)
		return c.SendStatus(500)
	}

	checksum, err := utils.SHA256ofFile(dst)
	if err != nil {
		slog.Warn("Fail to hash upload", "file", name, "error", err)
	}

	slog.Info("File received", "remote", remote, "file", name, "size", fh.Size)
	ur.record(c.UserContext(), ledger.Record{
		Filename: name,
		Size:     fh.Size,
		Checksum: checksum,
		Remote:   remote,
	})
	ur.publish(models.NewEvent(models.EventUploadAccepted, name, constants.CodeOK, successMessage))

	return c.JSON(models.UploadResult{
		ErrorCode:      constants.CodeOK,
		SuccessMessage: successMessage,
		File:           name,
	})
}

func (ur *UploadReceiver) reject(c *fiber.Ctx, remote, name string, size int64, code int) error {
	msg := constants.Message(code, ur.rules.Allowed, ur.maxSize)
	slog.Info("Upload rejected", "remote", remote, "file", name, "code", code)

	ur.record(c.UserContext(), ledger.Record{
		Filename:  name,
		Size:      size,
		ErrorCode: code,
		Remote:    remote,
	})
	ur.publish(models.NewEvent(models.EventUploadRejected, name, code, msg))

	return c.JSON(models.UploadResult{
		ErrorCode:    code,
		ErrorMessage: "ERROR: " + msg,
		File:         name,
	})
}

func (ur *UploadReceiver) record(ctx context.Context, rec ledger.Record) {
	if ur.ledger == nil {
		return
	}
	if _, err := ur.ledger.Record(ctx, rec); err != nil {
		slog.Error("Fail to record upload", "file", rec.Filename, "error", err)
	}
}

func (ur *UploadReceiver) publish(ev models.Event) {
	if ur.hub != nil {
		ur.hub.Broadcast(ev)
	}
}

func (ur *UploadReceiver) clearHandler(c *fiber.Ctx) error {
	if !ur.checkPin(c) {
		return c.SendStatus(401)
	}

	removed, err := ClearDir(ur.cfg.UploadDir)
	if err != nil {
		slog.Error("Fail to clear uploads", "error", err)
		return c.SendStatus(500)
	}

	slog.Info("Uploads cleared", "removed", removed)
	ur.publish(models.NewEvent(models.EventUploadsCleared, "", constants.CodeOK, fmt.Sprintf("%d files removed", removed)))

	return c.JSON(fiber.Map{"removed": removed})
}

// ClearDir deletes every regular file directly under dir and reports how
// many were removed.
func ClearDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (ur *UploadReceiver) listHandler(c *fiber.Ctx) error {
	if ur.ledger == nil {
		return c.JSON([]ledger.Record{})
	}

	recs, err := ur.ledger.List(c.UserContext(), c.QueryInt("limit", 100))
	if err != nil {
		slog.Error("Fail to list uploads", "error", err)
		return c.SendStatus(500)
	}
	if recs == nil {
		recs = []ledger.Record{}
	}
	return c.JSON(recs)
}

func (ur *UploadReceiver) infoHandler(c *fiber.Ctx) error {
	return c.JSON(&ur.identity)
}
