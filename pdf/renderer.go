package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const defaultRenderTimeout = 30 * time.Second

// A4 paper size in inches.
const (
	paperWidthA4  = 8.27
	paperHeightA4 = 11.7
)

// RenderError wraps a PDF generation failure with its underlying cause.
// The caller surfaces it; the invoice record stays untouched.
type RenderError struct {
	Msg string
	Err error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdf render: %s: %v", e.Msg, e.Err)
	}
	return "pdf render: " + e.Msg
}

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer turns finished HTML into PDF bytes. Synchronous; may fail with
// a *RenderError.
type Renderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// ChromeRendererConfig configures the headless-Chrome renderer.
type ChromeRendererConfig struct {
	// Timeout per render operation. Defaults to 30s.
	Timeout time.Duration
	// NoSandbox runs Chrome without its sandbox (needed in Docker/root).
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromeRenderer renders HTML to PDF through the Chrome DevTools protocol.
type ChromeRenderer struct {
	timeout     time.Duration
	log         *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromeRenderer prepares a Chrome exec allocator. The browser itself
// is launched lazily on the first Render call.
func NewChromeRenderer(cfg ChromeRendererConfig) *ChromeRenderer {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultRenderTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeRenderer{
		timeout:     cfg.Timeout,
		log:         cfg.Logger,
		allocCtx:    allocCtx,
		allocCancel: cancel,
	}
}

// Render prints the document to an A4 portrait PDF.
func (r *ChromeRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, &RenderError{Msg: "document is empty"}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx)
	defer browserCancel()

	start := time.Now()
	var data []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdfData, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidthA4).
				WithPaperHeight(paperHeightA4).
				Do(ctx)
			if err != nil {
				return err
			}
			data = pdfData
			return nil
		}),
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &RenderError{Msg: fmt.Sprintf("timed out after %v", r.timeout), Err: err}
		}
		return nil, &RenderError{Msg: "chrome execution failed", Err: err}
	}
	if len(data) == 0 {
		return nil, &RenderError{Msg: "generated PDF is empty"}
	}

	r.log.Info("pdf rendered",
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)))
	return data, nil
}

// Close releases the Chrome allocator.
func (r *ChromeRenderer) Close() {
	r.allocCancel()
}
