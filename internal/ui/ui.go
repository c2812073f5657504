// Package ui formats what the commands print.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	boldStyle = lipgloss.NewStyle().Bold(true)

	titleCaser = cases.Title(language.English)
)

// OK renders "ok: <msg>".
func OK(format string, args ...any) string {
	return okStyle.Render("ok:") + " " + fmt.Sprintf(format, args...)
}

// Warn renders "warning: <msg>".
func Warn(format string, args ...any) string {
	return warnStyle.Render("warning:") + " " + fmt.Sprintf(format, args...)
}

// Bold renders s in bold where the terminal supports it.
func Bold(s string) string {
	return boldStyle.Render(s)
}

// Title capitalises the words of s, e.g. "application error" -> "Application Error".
func Title(s string) string {
	return titleCaser.String(s)
}

// Seconds formats a millisecond duration as exact seconds, e.g. 1500 -> "1.5s".
func Seconds(ms int64) string {
	return decimal.New(ms, -3).String() + "s"
}

// Println writes the line to w.
func Println(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}
