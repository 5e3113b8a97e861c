// Package report renders the outputs that describe a cleaning run: the
// plain-text log file and an optional Markdown summary.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tidyframe-cli/internal/pipeline"
	"github.com/KaramelBytes/tidyframe-cli/internal/utils"
)

// WriteLogs writes both logs in their recorded order:
//
//	Missing Value Log:
//	column: description
//
//	Outlier Log:
//	column: description
func WriteLogs(w io.Writer, missing, outliers pipeline.Log) error {
	_, err := io.WriteString(w, FormatLogs(missing, outliers))
	return err
}

// FormatLogs returns the text WriteLogs would write.
func FormatLogs(missing, outliers pipeline.Log) string {
	var b strings.Builder
	b.WriteString("Missing Value Log:\n")
	for _, e := range missing {
		fmt.Fprintf(&b, "%s: %s\n", e.Column, e.Description)
	}
	b.WriteString("\nOutlier Log:\n")
	for _, e := range outliers {
		fmt.Fprintf(&b, "%s: %s\n", e.Column, e.Description)
	}
	return b.String()
}

// SaveLogs writes the log report to path, creating parent directories.
func SaveLogs(path string, missing, outliers pipeline.Log) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	return utils.SafeWriteFile(path, []byte(FormatLogs(missing, outliers)))
}
