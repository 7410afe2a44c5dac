package main

import (
	"fmt"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"

	"github.com/AdrikGG/Mandelbrot"
)

// config is the resolved configuration: defaults, then the TOML file, then
// command-line flags.
type config struct {
	Width      int     `koanf:"width"`
	Height     int     `koanf:"height"`
	Scale      float64 `koanf:"scale"`
	Iterations int     `koanf:"iterations"`
	Adaptive   int     `koanf:"adaptive"`
	Step       int     `koanf:"step"`
	Radius     float64 `koanf:"radius"`
	Palette    string  `koanf:"palette"`
	Precision  string  `koanf:"precision"`
	Backend    string  `koanf:"backend"`
	Workers    int     `koanf:"workers"`
}

func defaultConfig() config {
	return config{
		Width:      mandelbrot.DefaultPlotWidth,
		Height:     mandelbrot.DefaultPlotHeight,
		Scale:      mandelbrot.DefaultScale,
		Iterations: mandelbrot.DefaultIterationBound,
		Step:       1,
		Radius:     2,
		Palette:    mandelbrot.CyclicHue.String(),
		Precision:  mandelbrot.PrecisionNative.String(),
		Backend:    mandelbrot.StrategyAuto.String(),
	}
}

// loadConfigFile overlays the [render] table of a TOML file onto c.
func loadConfigFile(path string, c *config) error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := k.Unmarshal("render", c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// applyArgs overrides c with every flag given on the command line.
func applyArgs(a *args, c *config) {
	setInt(&c.Width, a.Width)
	setInt(&c.Height, a.Height)
	setInt(&c.Iterations, a.Iterations)
	setInt(&c.Adaptive, a.Adaptive)
	setInt(&c.Step, a.Step)
	setInt(&c.Workers, a.Workers)
	setFloat(&c.Scale, a.Scale)
	setFloat(&c.Radius, a.Radius)
	setString(&c.Palette, a.Palette)
	setString(&c.Precision, a.Precision)
	setString(&c.Backend, a.Backend)
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// sessionOptions converts c into session options.
func (c config) sessionOptions() ([]mandelbrot.SessionOption, error) {
	mode, err := mandelbrot.ParseColorMode(c.Palette)
	if err != nil {
		return nil, err
	}
	var prec mandelbrot.Precision
	switch c.Precision {
	case "native", "":
		prec = mandelbrot.PrecisionNative
	case "extended":
		prec = mandelbrot.PrecisionExtended
	default:
		return nil, fmt.Errorf("unknown precision %q", c.Precision)
	}
	return []mandelbrot.SessionOption{
		mandelbrot.WithScale(c.Scale),
		mandelbrot.WithIterationBound(c.Iterations),
		mandelbrot.WithAdaptiveIterations(c.Adaptive),
		mandelbrot.WithPixelStep(c.Step),
		mandelbrot.WithEscapeRadius2(c.Radius * c.Radius),
		mandelbrot.WithColorMode(mode),
		mandelbrot.WithPrecision(prec),
	}, nil
}
