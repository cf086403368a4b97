// photobox-render renders one page into <root>/img/current/<slug>.png.
//
//	photobox-render <locator> <width> <height> <root> <options.json>
//
// PHOTOBOX_CHROME_URL connects to a running Chrome instead of launching one.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"photobox/internal/logging"
	"photobox/internal/render"
)

func main() {
	logger := logging.New(os.Stderr, os.Getenv("PHOTOBOX_LOG_LEVEL"))

	req, err := render.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Usage: photobox-render <locator> <width> <height> <root> <options.json>")
		logger.Error("render: bad invocation", "error", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r := &render.Renderer{
		RemoteURL: os.Getenv("PHOTOBOX_CHROME_URL"),
		Logger:    logger,
	}
	if err := r.Capture(ctx, req); err != nil {
		logger.Error("render: taking picture failed", "url", req.Locator, "error", err)
		os.Exit(1)
	}
}
