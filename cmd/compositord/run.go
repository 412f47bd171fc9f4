// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/beginframe"
	"github.com/gogpu/compositor/display"
	"github.com/gogpu/compositor/frame"
	"github.com/gogpu/compositor/ids"
	"github.com/gogpu/compositor/metrics"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/surface"
	"github.com/gogpu/compositor/task"
	"github.com/gogpu/compositor/tracestore"
	"github.com/gogpu/compositor/tracestream"
)

var (
	displaySink = ids.FrameSinkID{ClientID: 1, SinkID: 1}
	rootSink    = ids.FrameSinkID{ClientID: 2, SinkID: 1}
	childSink   = ids.FrameSinkID{ClientID: 3, SinkID: 1}
)

type runConfig struct {
	frames   int
	duration time.Duration
	interval time.Duration
	size     image.Point
	source   string
	backend  string
	record   string
	serve    string
	output   string
	settings display.Settings
}

func newRunCommand() *cobra.Command {
	var (
		cfg  = runConfig{settings: display.DefaultSettings()}
		size string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless compositor with two animated clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if cfg.size, err = parseSize(size); err != nil {
				return err
			}
			if cfg.frames <= 0 && cfg.duration <= 0 && cfg.serve == "" {
				return errors.New("one of --frames, --duration or --serve is required")
			}
			return runCompositor(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.IntVar(&cfg.frames, "frames", 120, "stop after this many swapped frames (0 = no limit)")
	f.DurationVar(&cfg.duration, "duration", 0, "stop after this long (0 = no limit)")
	f.DurationVar(&cfg.interval, "interval", beginframe.DefaultInterval, "BeginFrame interval")
	f.StringVar(&size, "size", "320x240", "display size as WIDTHxHEIGHT")
	f.StringVar(&cfg.source, "source", "delay-based", "BeginFrame source: back-to-back or delay-based")
	f.StringVar(&cfg.backend, "backend", "", "output backend (default: best available)")
	f.StringVar(&cfg.record, "record", "", "record frame reports to this SQLite database")
	f.StringVar(&cfg.serve, "serve", "", "serve /metrics and /frames on this address")
	f.StringVar(&cfg.output, "output", "", "write the last presented frame to this PNG file")
	f.IntVar(&cfg.settings.MaxPendingSwaps, "max-pending-swaps", cfg.settings.MaxPendingSwaps, "swaps allowed in flight")
	f.BoolVar(&cfg.settings.FinishRenderingOnResize, "finish-on-resize", false, "swap pending work before a resize")
	return cmd
}

// parseSize parses "WIDTHxHEIGHT".
func parseSize(s string) (image.Point, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return image.Point{}, fmt.Errorf("invalid size %q: want WIDTHxHEIGHT", s)
	}
	x, errW := strconv.Atoi(w)
	y, errH := strconv.Atoi(h)
	if err := errors.Join(errW, errH); err != nil {
		return image.Point{}, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if x <= 0 || y <= 0 {
		return image.Point{}, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	return image.Pt(x, y), nil
}

// displayClient cancels the run when the output surface is lost.
type displayClient struct {
	cancel context.CancelFunc
	lost   bool
}

func (c *displayClient) DisplayOutputSurfaceLost() {
	c.lost = true
	c.cancel()
}
func (c *displayClient) DisplayWillDrawAndSwap(bool, []*frame.RenderPass) {}
func (c *displayClient) DisplayDidDrawAndSwap()                          {}
func (c *displayClient) DisplaySetMemoryPolicy(display.MemoryPolicy)     {}

func runCompositor(ctx context.Context, cfg runConfig, stdout io.Writer) error {
	log := compositor.Logger()

	kind, err := beginframe.ParseKind(cfg.source)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.duration)
		defer cancel()
	}

	runner := task.NewLoopRunner()
	source := beginframe.NewSyntheticSource(kind, runner,
		beginframe.WithDefaultInterval(cfg.interval),
		beginframe.WithDefaultDeadline(cfg.interval))

	// A headless process has no host GPU. The software adapter ranks below
	// pixmap, so the device backend is used only when named.
	render.RegisterDevice(render.DefaultRegistry(), render.NewSoftwareDevice(gputypes.TextureFormatUndefined))
	opts := render.OutputOptions{Runner: runner}
	var out render.Output
	if cfg.backend != "" {
		out, err = render.NewOutputByName(cfg.backend, opts)
	} else {
		out, err = render.NewOutput(opts)
	}
	if err != nil {
		return err
	}
	renderer := render.NewSoftwareRenderer(out)

	displayOpts := []display.Option{
		display.WithBeginFrameSource(source, runner),
		display.WithSettings(cfg.settings),
	}

	var (
		swapped   int
		lastFrame atomic.Int64
		dropped   atomic.Int64
		d         *display.Display
	)
	displayOpts = append(displayOpts, display.WithReporter(display.ReporterFunc(func(r display.FrameReport) {
		lastFrame.Store(int64(r.Sequence))
		dropped.Store(int64(d.Scheduler().DroppedBeginFrames()))
		if r.Outcome == display.OutcomeDrawnAndSwapped {
			swapped++
			if cfg.frames > 0 && swapped >= cfg.frames {
				cancel()
			}
		}
	})))

	var recorder *tracestore.Recorder
	if cfg.record != "" {
		store, err := tracestore.Open(ctx, cfg.record)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder, err = store.BeginRun(ctx, fmt.Sprintf("%s %dx%d", kind, cfg.size.X, cfg.size.Y))
		if err != nil {
			return err
		}
		displayOpts = append(displayOpts, display.WithReporter(recorder))
	}

	serveErr := make(chan error, 1)
	if cfg.serve != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		fm := metrics.New(reg, metrics.WithDroppedBeginFrames(func() int { return int(dropped.Load()) }))
		hub := tracestream.NewHub()
		go hub.Run(ctx)
		displayOpts = append(displayOpts, display.WithReporter(fm), display.WithReporter(hub))

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		mux.Handle("/frames", hub)
		ln, err := net.Listen("tcp", cfg.serve)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.serve, err)
		}
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			srv.Shutdown(shutdownCtx)
		}()
		fmt.Fprintf(stdout, "serving http://%s/metrics and ws://%s/frames\n", ln.Addr(), ln.Addr())
	}

	manager := surface.NewManager()
	for _, id := range []ids.FrameSinkID{displaySink, rootSink, childSink} {
		manager.RegisterFrameSinkID(id)
	}
	manager.RegisterFrameSinkHierarchy(displaySink, rootSink)
	manager.RegisterFrameSinkHierarchy(rootSink, childSink)

	d = display.New(displaySink, out, renderer, displayOpts...)
	client := &displayClient{cancel: cancel}
	d.Initialize(client, manager)

	inset := image.Rect(cfg.size.X/4, cfg.size.Y/4, cfg.size.X*3/4, cfg.size.Y*3/4)
	child := newProducer("child", childSink, manager, childScene(inset.Size()))
	root := newProducer("root", rootSink, manager, rootScene(cfg.size, child.surfaceID()))

	d.Resize(cfg.size)
	d.SetVisible(true)
	d.SetSurfaceID(root.surfaceID(), 1)

	log.Info("compositord: running", "source", kind, "size", cfg.size, "backend", cfg.backend)
	start := time.Now()
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	elapsed := time.Since(start)
	last := renderer.BackBuffer()

	root.close()
	child.close()
	d.Close()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	default:
	}
	if client.lost {
		return render.ErrOutputLost
	}
	if recorder != nil {
		if err := recorder.Err(); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "recorded run %s\n", recorder.Run().ID)
	}

	stats := renderer.Stats()
	fmt.Fprintf(stdout, "swapped %d frames (%d attempts, %d dropped begin frames) in %s\n",
		swapped, lastFrame.Load(), dropped.Load(), elapsed.Round(time.Millisecond))
	log.Info("compositord: done", "frames", stats.Frames, "swaps", stats.Swaps, "quads", stats.Quads)

	if cfg.output != "" {
		if last == nil {
			return errors.New("no frame was drawn")
		}
		if err := writePNG(cfg.output, last); err != nil {
			return err
		}
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
