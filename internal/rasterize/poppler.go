package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// PageRenderer renders the first page of a PDF to PNG at the given DPI.
type PageRenderer interface {
	RenderFirstPage(ctx context.Context, pdf []byte, dpi int) ([]byte, error)
}

// PopplerRenderer shells out to poppler's pdftoppm.
type PopplerRenderer struct {
	Bin string
}

// RenderFirstPage writes pdf to a scratch directory and rasterizes page 1.
func (p PopplerRenderer) RenderFirstPage(ctx context.Context, pdf []byte, dpi int) ([]byte, error) {
	bin := strings.TrimSpace(p.Bin)
	if bin == "" {
		bin = "pdftoppm"
	}

	dir, err := os.MkdirTemp("", "letterhead-render-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "source.pdf")
	if err := os.WriteFile(inPath, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("write source: %w", err)
	}
	outPrefix := filepath.Join(dir, "page")

	cmd := exec.CommandContext(ctx, bin,
		"-png",
		"-f", "1",
		"-l", "1",
		"-r", strconv.Itoa(dpi),
		"-singlefile",
		inPath,
		outPrefix,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: pdftoppm: %v (%s)", ErrDecode, err, strings.TrimSpace(stderr.String()))
	}

	out, err := os.ReadFile(outPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("%w: read rendered page: %v", ErrDecode, err)
	}
	return out, nil
}
