package ui

import (
	"fmt"
	"os/exec"
	"runtime"

	"imagegrab/internal/downloader"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	cmd := exec.Command("notify-send", title, message)
	return cmd.Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

// Notifier sends desktop notifications when a run finishes
type Notifier struct {
	sender NotificationSender
}

// NewNotifier creates a Notifier for the current platform. Platforms
// without a sender get a Notifier that does nothing.
func NewNotifier() *Notifier {
	var sender NotificationSender

	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	}

	return &Notifier{sender: sender}
}

// NewNotifierWithSender creates a Notifier using sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// RunComplete announces the totals of a finished run. Delivery errors are
// returned for logging only.
func (n *Notifier) RunComplete(summary downloader.Summary) error {
	if n.sender == nil {
		return nil
	}

	title := "imagegrab finished"
	if summary.Failed > 0 {
		title = "imagegrab finished with errors"
	}
	message := fmt.Sprintf("%d downloaded, %d skipped, %d failed",
		summary.Completed, summary.Skipped, summary.Failed)

	return n.sender.Send(title, message)
}
