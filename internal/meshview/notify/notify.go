// Package notify is the dialog backend the intake and dispatcher report to.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Notifier surfaces modal messages to the user.
type Notifier interface {
	// Error shows a blocking error dialog. file may be empty.
	Error(title, message, file string)
	// Progress replaces the body of the progress dialog.
	Progress(text string)
	// Close dismisses the progress dialog.
	Close()
}

// LogNotifier writes every dialog to the default slog logger.
type LogNotifier struct{}

func (LogNotifier) Error(title, message, file string) {
	slog.Error(title, "message", message, "file", file)
}

func (LogNotifier) Progress(text string) {
	slog.Info(text)
}

func (LogNotifier) Close() {}

var (
	errorTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f38ba8"))
	errorBox   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#f38ba8")).
			Padding(0, 1)
	progressText = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa"))
)

// TermNotifier renders dialogs as styled boxes on a terminal.
type TermNotifier struct {
	w  io.Writer
	mu sync.Mutex
}

func NewTermNotifier(w io.Writer) *TermNotifier {
	return &TermNotifier{w: w}
}

func (tn *TermNotifier) Error(title, message, file string) {
	tn.mu.Lock()
	defer tn.mu.Unlock()

	body := errorTitle.Render(title) + "\n" + message
	if file != "" {
		body += "\nError file: " + file
	}
	fmt.Fprintln(tn.w, errorBox.Render(body))
}

func (tn *TermNotifier) Progress(text string) {
	tn.mu.Lock()
	defer tn.mu.Unlock()

	fmt.Fprintln(tn.w, progressText.Render(text))
}

func (tn *TermNotifier) Close() {}

// Note is one call captured by a Recorder.
type Note struct {
	Kind    string // "error", "progress" or "close"
	Title   string
	Message string
	File    string
}

// Recorder keeps every dialog in memory.
type Recorder struct {
	mu    sync.Mutex
	notes []Note
}

func (r *Recorder) Error(title, message, file string) {
	r.add(Note{Kind: "error", Title: title, Message: message, File: file})
}

func (r *Recorder) Progress(text string) {
	r.add(Note{Kind: "progress", Message: text})
}

func (r *Recorder) Close() {
	r.add(Note{Kind: "close"})
}

func (r *Recorder) add(n Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *Recorder) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Note(nil), r.notes...)
}

// Errors returns only the error dialogs.
func (r *Recorder) Errors() []Note {
	var res []Note
	for _, n := range r.Notes() {
		if n.Kind == "error" {
			res = append(res, n)
		}
	}
	return res
}
