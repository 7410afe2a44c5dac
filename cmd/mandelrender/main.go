// Command mandelrender renders the Mandelbrot set to PNG.
//
// It replays a script of interactive keys against a session, so a deep
// zoom can be reproduced from the command line:
//
//	mandelrender -o deep.png --script "e@1012,377*60 c p" --precision extended
//
// Settings come from defaults, then the [render] table of an optional TOML
// file, then flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alexflint/go-arg"
	"github.com/pkg/profile"

	"github.com/AdrikGG/Mandelbrot"
	_ "github.com/AdrikGG/Mandelbrot/gpu"
	"github.com/AdrikGG/Mandelbrot/loop"
)

type args struct {
	Output string `arg:"-o,--out" default:"mandelbrot.png" help:"output PNG path"`
	Config string `arg:"--config" help:"TOML file with a [render] table"`
	Script string `arg:"--script" help:"keys to replay: e q w a s d c p, with optional @x,y and *n"`
	Frames string `arg:"--frames" help:"directory that receives a PNG per scripted step"`
	HUD    bool   `arg:"--hud" help:"overlay the viewport and settings"`
	Thumb  int    `arg:"--thumb" help:"also write a thumbnail this many pixels wide"`
	Raw    string `arg:"--raw" help:"also write the frame as a zstd-compressed RGBA dump"`
	Cmp    string `arg:"--compare" help:"fail unless the frame matches this raw dump"`
	Prof   string `arg:"--profile" help:"cpu, mem or trace; written to the working directory"`
	Debug  bool   `arg:"-v,--verbose" help:"debug logging"`

	Width      *int     `arg:"--width" help:"plot width in pixels"`
	Height     *int     `arg:"--height" help:"plot height in pixels"`
	Scale      *float64 `arg:"--scale" help:"pixels per unit of the complex plane"`
	Iterations *int     `arg:"-i,--iter" help:"iteration bound"`
	Adaptive   *int     `arg:"--adaptive" help:"change the bound by this much per zoom step"`
	Step       *int     `arg:"--step" help:"pixel step; each step x step block shares one sample"`
	Radius     *float64 `arg:"--radius" help:"escape radius"`
	Palette    *string  `arg:"--palette" help:"hue, cosine or grayscale"`
	Precision  *string  `arg:"--precision" help:"native or extended"`
	Backend    *string  `arg:"-b,--backend" help:"auto, sequential, parallel or gpu"`
	Workers    *int     `arg:"--workers" help:"parallel workers, 0 for GOMAXPROCS"`
}

func (args) Description() string {
	return "Render the Mandelbrot set to PNG."
}

func main() {
	var a args
	arg.MustParse(&a)
	os.Exit(realMain(&a))
}

// realMain returns the process exit code so deferred profile writers run
// before the process exits.
func realMain(a *args) int {
	level := slog.LevelInfo
	if a.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	mandelbrot.SetLogger(logger)

	mode, ok := profileModes[a.Prof]
	if !ok {
		logger.Error("unknown profile mode", "mode", a.Prof)
		return 2
	}
	if mode != nil {
		defer profile.Start(mode, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	if err := run(a, logger); err != nil {
		logger.Error("render failed", "err", err)
		return 1
	}
	return 0
}

// profileModes maps --profile values to pkg/profile modes. The empty mode
// disables profiling.
var profileModes = map[string]func(*profile.Profile){
	"":      nil,
	"cpu":   profile.CPUProfile,
	"mem":   profile.MemProfile,
	"trace": profile.TraceProfile,
}

func run(a *args, logger *slog.Logger) error {
	conf := defaultConfig()
	if a.Config != "" {
		if err := loadConfigFile(a.Config, &conf); err != nil {
			return err
		}
	}
	applyArgs(a, &conf)

	ops, err := parseScript(a.Script)
	if err != nil {
		return err
	}

	sessOpts, err := conf.sessionOptions()
	if err != nil {
		return err
	}
	sess, err := mandelbrot.NewSession(conf.Width, conf.Height, sessOpts...)
	if err != nil {
		return err
	}

	strategy, err := mandelbrot.ParseStrategy(conf.Backend)
	if err != nil {
		return err
	}
	engine, err := mandelbrot.NewEngine(
		mandelbrot.WithStrategy(strategy),
		mandelbrot.WithParallelOptions(mandelbrot.WithWorkers(conf.Workers)),
	)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if a.Frames != "" {
		if err := renderFrames(ctx, engine, sess, ops, a, logger); err != nil {
			return err
		}
	} else {
		for _, o := range ops {
			for range o.repeat {
				o.apply(sess, os.Stdout)
			}
		}
	}

	buf, err := engine.Render(ctx, sess.Params())
	if err != nil {
		return err
	}
	logger.Info("rendered", "backend", engine.Backend(), "size", fmt.Sprintf("%dx%d", buf.Width(), buf.Height()))

	if a.Cmp != "" {
		n, err := compareRaw(a.Cmp, buf)
		if err != nil {
			return fmt.Errorf("compare %s: %w", a.Cmp, err)
		}
		logger.Info("compared", "reference", a.Cmp, "differing", n)
		if n > 0 {
			return fmt.Errorf("%d pixels differ from %s", n, a.Cmp)
		}
	}

	return writeOutputs(buf, sess.Snapshot(), engine.Backend(), a)
}

// renderFrames replays ops through a frame loop, writing every frame it
// publishes. Steps that arrive while a frame renders are coalesced.
func renderFrames(ctx context.Context, engine *mandelbrot.Engine, sess *mandelbrot.Session, ops []op, a *args, logger *slog.Logger) error {
	if err := os.MkdirAll(a.Frames, 0o755); err != nil {
		return err
	}

	frames := make(chan loop.Frame)
	fl := loop.Start(ctx, engine, func(f loop.Frame) {
		select {
		case frames <- f:
		case <-ctx.Done():
		}
	})

	last := fl.Request(sess.Params())
	for _, o := range ops {
		for range o.repeat {
			if o.apply(sess, os.Stdout) {
				last = fl.Request(sess.Params())
			}
		}
	}

	var writeErr error
wait:
	for {
		select {
		case f := <-frames:
			if f.Buffer != nil && writeErr == nil {
				path := filepath.Join(a.Frames, fmt.Sprintf("frame_%05d.png", f.Seq))
				writeErr = f.Buffer.SavePNG(path)
			}
			if f.Seq >= last {
				break wait
			}
		case <-ctx.Done():
			break wait
		}
	}
	if err := fl.Stop(); err != nil {
		return err
	}
	published, dropped := fl.Stats()
	logger.Info("frames written", "dir", a.Frames, "published", published, "dropped", dropped)
	return errors.Join(writeErr, ctx.Err())
}

func writeOutputs(buf *mandelbrot.FrameBuffer, snap mandelbrot.Snapshot, backend string, a *args) error {
	if a.Raw != "" {
		if err := saveRaw(a.Raw, buf); err != nil {
			return err
		}
	}
	img := buf.ToImage()
	if a.HUD {
		if err := drawHUD(img, hudLines(snap, backend)); err != nil {
			return err
		}
	}
	if err := savePNG(a.Output, img); err != nil {
		return err
	}
	if a.Thumb > 0 {
		ext := filepath.Ext(a.Output)
		path := a.Output[:len(a.Output)-len(ext)] + "_thumb.png"
		if err := savePNG(path, thumbnail(img, a.Thumb)); err != nil {
			return err
		}
	}
	return nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
