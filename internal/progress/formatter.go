package progress

import (
	"fmt"
	"strings"

	"github.com/fan-yu0/autoupdater/internal/update"
)

const barWidth = 30

// FormatBytes formats a byte count as a human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// renderBar draws the download line for s without a leading carriage return.
func renderBar(symbols ProgressSymbols, s update.ProgressSample) string {
	if s.TotalBytes <= 0 {
		return fmt.Sprintf("  Downloaded %s", FormatBytes(s.BytesDownloaded))
	}

	current := min(s.BytesDownloaded, s.TotalBytes)
	filled := int(float64(barWidth) * float64(current) / float64(s.TotalBytes))
	bar := strings.Repeat(symbols.BarFilled, filled) + strings.Repeat(symbols.BarEmpty, barWidth-filled)

	return fmt.Sprintf("  [%s] %.1f%% (%s/%s)", bar, s.Percent(),
		FormatBytes(s.BytesDownloaded), FormatBytes(s.TotalBytes))
}

// checkmark returns the appropriate checkmark symbol
func checkmark(symbols ProgressSymbols, supportsColor bool) string {
	mark := symbols.Checkmark
	if supportsColor && symbols.Checkmark == "✓" {
		mark = "\033[32m" + mark + "\033[0m" // Green
	}
	return mark
}

// failureMark returns the appropriate failure symbol
func failureMark(symbols ProgressSymbols, supportsColor bool) string {
	mark := symbols.Failure
	if supportsColor && symbols.Failure == "✗" {
		mark = "\033[31m" + mark + "\033[0m" // Red
	}
	return mark
}

// arrow returns the in-progress marker
func arrow(symbols ProgressSymbols, supportsColor bool) string {
	mark := symbols.Arrow
	if supportsColor && symbols.Arrow == "→" {
		mark = "\033[33m" + mark + "\033[0m" // Yellow
	}
	return mark
}
