package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// richExtensions are formats that require the external markitdown converter.
var richExtensions = map[string]bool{
	"pdf": true, "xlsx": true, "xls": true, "docx": true, "pptx": true, "csv": true, "html": true,
}

// plainExtensions are formats read directly as text, regardless of converter
// availability.
var plainExtensions = map[string]bool{
	"md": true, "txt": true,
}

// converterProbeTimeout bounds the "is markitdown installed" check so a
// missing binary never hangs ingest startup.
const converterProbeTimeout = 5 * time.Second

// Converter renders a rich-format file to markdown via the external
// `markitdown` child process.
type Converter struct {
	available bool
}

// ProbeConverter checks whether `markitdown --help` exits zero. A missing or
// misbehaving converter is not an error — it downgrades rich-format support:
// plain text extensions still process, rich ones are skipped.
func ProbeConverter(ctx context.Context) *Converter {
	probeCtx, cancel := context.WithTimeout(ctx, converterProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, "markitdown", "--help")
	err := cmd.Run()
	return &Converter{available: err == nil}
}

// Available reports whether the markitdown binary was found at probe time.
func (c *Converter) Available() bool { return c.available }

// Convert renders path to markdown by invoking `markitdown <path>` and
// capturing stdout. Empty stdout or a non-zero exit is a file-level failure.
func (c *Converter) Convert(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "markitdown", path)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ingest: markitdown %s: %w: %s", path, err, stderr.String())
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("ingest: markitdown %s: empty output", path)
	}
	return out.String(), nil
}

// acceptedExtension reports whether ext (lowercased, no leading dot) should
// be ingested given converter availability.
func acceptedExtension(ext string, converterAvailable bool) bool {
	if plainExtensions[ext] {
		return true
	}
	return converterAvailable && richExtensions[ext]
}
