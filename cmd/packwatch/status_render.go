package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type checkSeverity int

const (
	severityInfo checkSeverity = iota
	severityOK
	severityWarn
	severityError
)

func (s checkSeverity) label() string {
	switch s {
	case severityOK:
		return "OK"
	case severityWarn:
		return "WARN"
	case severityError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (s checkSeverity) colors() text.Colors {
	switch s {
	case severityOK:
		return text.Colors{text.FgGreen}
	case severityWarn:
		return text.Colors{text.FgYellow}
	case severityError:
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.FgBlue}
	}
}

const checkLabelWidth = 18

// renderCheckLine formats one station check as "  Label:  [OK] detail".
func renderCheckLine(label string, sev checkSeverity, detail string, colorize bool) string {
	status := "[" + sev.label() + "]"
	if detail != "" {
		status += " " + detail
	}
	line := fmt.Sprintf("  %-*s %s", checkLabelWidth, label+":", status)
	if colorize {
		return sev.colors().Sprint(line)
	}
	return line
}

func renderSectionHeader(title string, colorize bool) string {
	line := fmt.Sprintf("-- %s --", strings.TrimSpace(title))
	if colorize {
		return text.Colors{text.FgBlue, text.Bold}.Sprint(line)
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
