package documents

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

var _ Exporter = (*RodExporter)(nil)

// RodExporter renders preview HTML in headless Chrome. The browser is
// launched on first use and shared.
type RodExporter struct {
	// Bin is an optional browser binary; rod downloads Chromium otherwise.
	Bin     string
	Timeout time.Duration

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

const (
	pageCloseTimeout = 5 * time.Second
	browserPing      = 3 * time.Second
)

// NewRodExporter constructs a RodExporter.
func NewRodExporter(bin string, timeout time.Duration) *RodExporter {
	return &RodExporter{Bin: bin, Timeout: timeout}
}

func (r *RodExporter) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().Headless(true)
	if bin := strings.TrimSpace(r.Bin); bin != "" {
		l = l.Bin(bin).NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch browser: %v", ErrExport, err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: connect browser: %v", ErrExport, err)
	}
	r.browser, r.launcher = b, l
	return b, nil
}

// discard forgets b when it is still the shared browser, so the next export
// launches a new one.
func (r *RodExporter) discard(b *rod.Browser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != b {
		return
	}
	if r.launcher != nil {
		r.launcher.Kill()
	}
	r.browser, r.launcher = nil, nil
}

// alive checks the DevTools connection on a context of its own.
func alive(b *rod.Browser) bool {
	ctx, cancel := context.WithTimeout(context.Background(), browserPing)
	defer cancel()
	_, err := proto.BrowserGetVersion{}.Call(b.Context(ctx))
	return err == nil
}

// closePage closes the tab even when the export context already expired.
func closePage(page *rod.Page) {
	ctx, cancel := context.WithTimeout(context.Background(), pageCloseTimeout)
	defer cancel()
	_ = page.Context(ctx).Close()
}

func (r *RodExporter) openPage(ctx context.Context) (*rod.Page, error) {
	for attempt := 0; ; attempt++ {
		browser, err := r.ensureBrowser()
		if err != nil {
			return nil, err
		}
		page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err == nil {
			return page, nil
		}
		if alive(browser) {
			return nil, fmt.Errorf("%w: open page: %v", ErrExport, err)
		}
		r.discard(browser)
		if attempt > 0 || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: browser lost: %v", ErrExport, err)
		}
	}
}

// Close shuts the browser down.
func (r *RodExporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	if r.launcher != nil {
		r.launcher.Kill()
	}
	r.browser, r.launcher = nil, nil
	return err
}

// Export loads html at the A4 pixel width and produces a PDF.
func (r *RodExporter) Export(ctx context.Context, html string, mode Mode) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	page, err := r.openPage(ctx)
	if err != nil {
		return nil, err
	}
	defer closePage(page)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             PageWidthPx,
		Height:            1123,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("%w: set viewport: %v", ErrExport, err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("%w: load html: %v", ErrExport, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: wait load: %v", ErrExport, err)
	}

	switch mode {
	case ModePrint:
		return printPDF(page)
	default:
		quality := 100
		jpg, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
			Format:  proto.PageCaptureScreenshotFormatJpeg,
			Quality: &quality,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: screenshot: %v", ErrExport, err)
		}
		return paginateJPEG(jpg)
	}
}

func printPDF(page *rod.Page) ([]byte, error) {
	const mmPerInch = 25.4
	width, height, margin := a4WidthMM/mmPerInch, a4HeightMM/mmPerInch, pageMarginMM/mmPerInch
	zero := 0.0
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      &width,
		PaperHeight:     &height,
		MarginTop:       &margin,
		MarginBottom:    &margin,
		MarginLeft:      &zero,
		MarginRight:     &zero,
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: print: %v", ErrExport, err)
	}
	out, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf stream: %v", ErrExport, err)
	}
	return out, nil
}
