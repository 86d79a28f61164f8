package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // mined, ok
	ColorWarning   = lipgloss.Color("#FFB800") // pending, reverted
	ColorError     = lipgloss.Color("#FF4444")
	ColorInfo      = lipgloss.Color("#4CC9F0")
	ColorAddress   = lipgloss.Color("#00B4D8") // addresses, hashes
	ColorValue     = lipgloss.Color("#FFFFFF")
	ColorMeta      = lipgloss.Color("#555555")
	ColorBorder    = lipgloss.Color("#1E3A5F")
	ColorNetwork   = lipgloss.Color("#9B5DE5")
	ColorHighlight = lipgloss.Color("#F15BB5") // selected rows
)

var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleNetwork = lipgloss.NewStyle().Foreground(ColorNetwork).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorNetwork).
			Bold(true).
			MarginBottom(1)

	StyleDim = lipgloss.NewStyle().Foreground(ColorMeta)
)

// Banner is the one-line header printed by `rights info`.
func Banner(contractName, version string) string {
	title := StyleNetwork.Render("rights") + StyleMeta.Render(" · ")
	title += StyleValue.Render(contractName)
	if version != "" {
		title += StyleMeta.Render("  (" + version + ")")
	}
	return title
}

func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

func Err(msg string) string { return StyleError.Render("✗ " + msg) }

func Info(msg string) string { return StyleInfo.Render("ℹ " + msg) }

// Hint formats a follow-up suggestion, e.g. the next command to run.
func Hint(msg string) string { return StyleMeta.Render("→ " + msg) }

func Addr(a string) string { return StyleAddress.Render(a) }

func Val(v string) string { return StyleValue.Render(v) }

func Meta(m string) string { return StyleMeta.Render(m) }

func NetworkName(n string) string { return StyleNetwork.Render(n) }

// TruncateAddr shortens an address or hash for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// padR pads s to visible width n (ANSI-safe using lipgloss.Width).
func padR(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}

// shortErr keeps the informative tail of noisy transport errors.
func shortErr(s string, limit int) string {
	for _, marker := range []string{"dial tcp", "connection refused", "context deadline", "execution reverted"} {
		if idx := strings.Index(s, marker); idx >= 0 {
			s = s[idx:]
			break
		}
	}
	if limit > 0 && len([]rune(s)) > limit {
		return string([]rune(s)[:limit]) + "…"
	}
	return s
}
