package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

var _ Exporter = (*ChromedpExporter)(nil)

// ChromedpExporter is the chromedp counterpart of RodExporter. It drives a
// locally installed Chrome and never downloads one.
type ChromedpExporter struct {
	Bin     string
	Timeout time.Duration

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromedpExporter constructs a ChromedpExporter. The browser starts on
// the first export.
func NewChromedpExporter(bin string, timeout time.Duration) *ChromedpExporter {
	return &ChromedpExporter{Bin: bin, Timeout: timeout}
}

func (e *ChromedpExporter) ensureBrowser() (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browserCtx != nil {
		return e.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
	)
	if bin := strings.TrimSpace(e.Bin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin), chromedp.NoSandbox)
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: start browser: %v", ErrExport, err)
	}
	e.allocCancel, e.browserCtx, e.browserCancel = allocCancel, browserCtx, browserCancel
	return browserCtx, nil
}

// Close stops the browser. It is safe to call more than once.
func (e *ChromedpExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browserCtx == nil {
		return nil
	}
	e.browserCancel()
	e.allocCancel()
	e.browserCtx, e.browserCancel, e.allocCancel = nil, nil, nil
	return nil
}

// Export opens html in a new tab at the A4 pixel width and produces a PDF.
func (e *ChromedpExporter) Export(ctx context.Context, html string, mode Mode) ([]byte, error) {
	browserCtx, err := e.ensureBrowser()
	if err != nil {
		return nil, err
	}

	// chromedp navigates by URL, so the document goes through a temp file.
	f, err := os.CreateTemp("", "letterhead-export-*.html")
	if err != nil {
		return nil, fmt.Errorf("%w: temp file: %v", ErrExport, err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(html); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: write temp file: %v", ErrExport, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: close temp file: %v", ErrExport, err)
	}
	abs, err := filepath.Abs(f.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: resolve temp file: %v", ErrExport, err)
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()
	if e.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		tabCtx, cancelTimeout = context.WithTimeout(tabCtx, e.Timeout)
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var out []byte
	actions := []chromedp.Action{
		chromedp.EmulateViewport(PageWidthPx, 1123),
		chromedp.Navigate("file://" + abs),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	switch mode {
	case ModePrint:
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			const mmPerInch = 25.4
			var err error
			out, _, err = page.PrintToPDF().
				WithPaperWidth(a4WidthMM / mmPerInch).
				WithPaperHeight(a4HeightMM / mmPerInch).
				WithMarginTop(pageMarginMM / mmPerInch).
				WithMarginBottom(pageMarginMM / mmPerInch).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPrintBackground(true).
				Do(ctx)
			return err
		}))
	default:
		// Quality below 100 makes chromedp capture JPEG.
		actions = append(actions, chromedp.FullScreenshot(&out, 99))
	}

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrExport, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrExport, err)
	}
	if mode == ModePrint {
		return out, nil
	}
	return paginateJPEG(out)
}
