package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// UI provides styled terminal output helpers.
type UI struct {
	jsonMode bool
	noColor  bool
}

// NewUI creates a UI instance.
func NewUI(jsonMode bool) *UI {
	noColor := os.Getenv("NO_COLOR") != ""
	if noColor {
		color.NoColor = true
	}
	return &UI{
		jsonMode: jsonMode,
		noColor:  noColor,
	}
}

// Success prints a success message.
func (u *UI) Success(format string, args ...interface{}) {
	if u.jsonMode {
		return
	}
	green := color.New(color.FgGreen)
	green.Printf("✓ "+format+"\n", args...)
}

// Error prints an error message to stderr.
func (u *UI) Error(format string, args ...interface{}) {
	if u.jsonMode {
		return
	}
	red := color.New(color.FgRed)
	red.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// Info prints an informational message.
func (u *UI) Info(format string, args ...interface{}) {
	if u.jsonMode {
		return
	}
	fmt.Printf(format+"\n", args...)
}

// JSON prints a value as indented JSON to stdout.
func (u *UI) JSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Spinner shows an indeterminate progress indicator on stderr.
func (u *UI) Spinner(message string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	if !u.jsonMode {
		s.Start()
	}
	return s
}

// ProgressBar creates a determinate progress bar on stderr.
func (u *UI) ProgressBar(total int64, description string) *progressbar.ProgressBar {
	if u.jsonMode {
		return progressbar.DefaultSilent(total)
	}
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
}
