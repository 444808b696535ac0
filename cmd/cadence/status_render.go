package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"cadence/internal/events"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

// renderEventLine formats one build progress event as a status line.
func renderEventLine(event events.Event, colorize bool) string {
	var label string
	if event.Scope == events.ScopeLesson {
		label = "lesson " + event.LessonID
	} else {
		label = fmt.Sprintf("[%d/%d] %s", event.Index+1, event.Total, event.SegmentID)
	}

	kind := statusInfo
	message := string(event.Type)
	switch event.Type {
	case events.Completed:
		kind = statusOK
		message = fmt.Sprintf("assembled %ss", formatSeconds(event.Duration))
	case events.Skipped:
		kind = statusOK
		message = fmt.Sprintf("reused %ss", formatSeconds(event.Duration))
	case events.Compiled:
		kind = statusOK
		message = fmt.Sprintf("timeline %s (%ss)", event.Path, formatSeconds(event.Duration))
	case events.Cached:
		kind = statusWarn
		message = fmt.Sprintf("already compiled at %s", event.Path)
	case events.Failed:
		kind = statusError
		message = strings.TrimSpace(event.ErrorKind + ": " + event.Error)
	}
	return renderStatusLine(label, kind, message, colorize)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
