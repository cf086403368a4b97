// Package render takes one screenshot of one page with headless Chrome.
// It is the body of the photobox-render process the capture stage launches.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"photobox/internal/core"
)

// Request is one render invocation.
type Request struct {
	Locator string
	Width   int
	Height  int
	Root    string
	Options core.RenderOptions
}

// Output is where the capture of r goes.
func (r Request) Output() string {
	return core.Layout{Root: r.Root}.Image(core.Current, core.Slug(r.Locator, r.Width, r.Height))
}

// ParseArgs reads "<locator> <width> <height> <root> <options.json>".
func ParseArgs(args []string) (Request, error) {
	if len(args) != 5 {
		return Request{}, fmt.Errorf("render: want 5 arguments, got %d", len(args))
	}
	w, err := strconv.Atoi(args[1])
	if err != nil || w <= 0 {
		return Request{}, fmt.Errorf("render: invalid width %q", args[1])
	}
	h, err := strconv.Atoi(args[2])
	if err != nil || h <= 0 {
		return Request{}, fmt.Errorf("render: invalid height %q", args[2])
	}
	opts, err := LoadOptions(args[4])
	if err != nil {
		return Request{}, err
	}
	return Request{
		Locator: args[0],
		Width:   w,
		Height:  h,
		Root:    core.NormalizeRoot(args[3]),
		Options: opts,
	}, nil
}

// LoadOptions reads the options artifact written by the capture stage.
// Keys it does not set keep their defaults.
func LoadOptions(path string) (core.RenderOptions, error) {
	opts := core.DefaultConfig().Render
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("render: read options: %w", err)
	}
	if err := json.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("render: parse options: %w", err)
	}
	return opts, nil
}

// Renderer drives Chrome through rod.
type Renderer struct {
	RemoteURL string // connect to a running Chrome instead of launching one
	Logger    *slog.Logger
}

// Capture opens the page, waits for it to settle and writes a PNG clipped to the viewport.
func (r *Renderer) Capture(ctx context.Context, req Request) error {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	wsURL := r.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true)
		if req.Options.LocalToRemoteURLAccessEnabled {
			l = l.Set("allow-file-access-from-files")
		}
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("render: launch: %w", err)
		}
		defer l.Cleanup()
		wsURL = u
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("render: connect: %w", err)
	}
	defer b.Close()

	// credentials only answer auth challenges, never ride along on subresources
	if req.Options.UserName != "" || req.Options.Password != "" {
		wait := b.HandleAuth(req.Options.UserName, req.Options.Password)
		go func() {
			if err := wait(); err != nil {
				log.Debug("render: auth handler stopped", "error", err)
			}
		}()
	}

	page, err := r.openPage(b, req.Options.Stealth)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := r.configure(page, req); err != nil {
		return err
	}

	log.Debug("render: opening", "url", req.Locator, "width", req.Width, "height", req.Height)
	if err := page.Navigate(req.Locator); err != nil {
		return fmt.Errorf("render: navigate %s: %w", req.Locator, err)
	}
	if err := page.WaitLoad(); err != nil {
		log.Warn("render: wait load", "url", req.Locator, "error", err)
	}
	if req.Options.Delay > 0 {
		select {
		case <-time.After(time.Duration(req.Options.Delay) * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	img, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			Width:  float64(req.Width),
			Height: float64(req.Height),
			Scale:  1,
		},
	})
	if err != nil {
		return fmt.Errorf("render: screenshot: %w", err)
	}

	out := req.Output()
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("render: mkdir: %w", err)
	}
	if err := os.WriteFile(out, img, 0o644); err != nil {
		return fmt.Errorf("render: write: %w", err)
	}
	log.Info("render: rendering", "path", out)
	return nil
}

func (r *Renderer) openPage(b *rod.Browser, useStealth bool) (*rod.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if useStealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("render: create page: %w", err)
	}
	return page, nil
}

func (r *Renderer) configure(page *rod.Page, req Request) error {
	opts := req.Options

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             req.Width,
		Height:            req.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("render: viewport: %w", err)
	}

	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			return fmt.Errorf("render: user agent: %w", err)
		}
	}

	if !opts.JavascriptEnabled {
		if err := (proto.EmulationSetScriptExecutionDisabled{Value: true}).Call(page); err != nil {
			return fmt.Errorf("render: disable scripts: %w", err)
		}
	}

	if !opts.LoadImages {
		router := page.HijackRequests()
		router.MustAdd("*", func(h *rod.Hijack) {
			if h.Request.Type() == proto.NetworkResourceTypeImage {
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
			h.ContinueRequest(&proto.FetchContinueRequest{})
		})
		go router.Run()
	}
	return nil
}
