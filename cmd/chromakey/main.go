package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/akamensky/argparse"
	"github.com/setanarut/chromakey"
	"github.com/setanarut/chromakey/internal/config"
	apperrors "github.com/setanarut/chromakey/internal/errors"
	"github.com/setanarut/chromakey/internal/logger"
	"github.com/setanarut/chromakey/utils"
	"github.com/sirupsen/logrus"
)

const usageLine = "usage: chromakey in.bmp background.bmp dist_threshold out1.bmp out2.bmp"

func main() {
	if err := run(os.Args, os.Stderr); err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeArgument) {
			logger.WithError(err).Error("chromakey failed")
		}
		os.Exit(apperrors.GetExitCode(err))
	}
}

type params struct {
	foreground string
	background string
	threshold  string
	out1       string
	out2       string
	mask1      string
	mask2      string
	paletteOut string
	inspect    bool
}

// valueFlags take the following argument as their value.
var valueFlags = map[string]bool{
	"-c":        true,
	"--config":  true,
	"--mask1":   true,
	"--mask2":   true,
	"--palette": true,
}

// splitArgs separates positional arguments from flags so that argparse only
// sees flags. Numbers such as "-5" are positional, as is everything after "--".
func splitArgs(args []string) (flags, positional []string) {
	if len(args) == 0 {
		return nil, nil
	}
	flags = append(flags, args[0])
	for i := 1; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			return flags, append(positional, args[i+1:]...)
		case len(a) < 2 || a[0] != '-' || isNumber(a):
			positional = append(positional, a)
		case valueFlags[a] && i+1 < len(args):
			flags = append(flags, a, args[i+1])
			i++
		default:
			flags = append(flags, a)
		}
	}
	return flags, positional
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

const positionalHelp = `arguments:
  in.bmp            Foreground bitmap
  background.bmp    Background bitmap
  dist_threshold    Distance threshold for the fixed method
  out1.bmp          Output of the fixed method
  out2.bmp          Output of the automatic method
`

func run(args []string, stderr io.Writer) error {
	parser := argparse.NewParser("chromakey", "Replace the keyed background of a bitmap using a fixed and an automatic threshold")
	configFile := parser.String("c", "config", &argparse.Options{Help: "YAML config file"})
	mask1 := parser.String("", "mask1", &argparse.Options{Help: "Also write the fixed method mask here"})
	mask2 := parser.String("", "mask2", &argparse.Options{Help: "Also write the automatic method mask here"})
	paletteOut := parser.String("", "palette", &argparse.Options{Help: "Write the foreground's dominant palette here"})
	inspectFlag := parser.Flag("i", "inspect", &argparse.Options{Help: "Log reference color, thresholds and palette"})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Debug logging"})

	flags, positional := splitArgs(args)
	if slices.Contains(flags, "-h") || slices.Contains(flags, "--help") {
		fmt.Fprint(stderr, usageLine+"\n\n"+positionalHelp+"\n"+parser.Usage(nil))
		return apperrors.NewArgumentError("help requested", 0)
	}
	if err := parser.Parse(flags); err != nil {
		fmt.Fprintf(stderr, "%v\n%v\n", usageLine, err)
		return apperrors.NewValidationError("invalid command line", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return apperrors.NewConfigError("failed to load config", err)
	}
	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	if err := logger.Setup(level, cfg.LogFormat); err != nil {
		return apperrors.NewConfigError("failed to set up logging", err)
	}

	if len(positional) < 5 {
		fmt.Fprintln(stderr, usageLine)
		return apperrors.NewArgumentError("missing arguments", cfg.UsageExitCode)
	}
	if len(positional) > 5 {
		logger.WithField("ignored", positional[5:]).Warn("Ignoring extra arguments")
	}
	p := params{
		foreground: positional[0],
		background: positional[1],
		threshold:  positional[2],
		out1:       positional[3],
		out2:       positional[4],
		mask1:      *mask1,
		mask2:      *mask2,
		paletteOut: *paletteOut,
		inspect:    *inspectFlag,
	}
	return process(cfg, p)
}

func process(cfg *config.Config, p params) error {
	fgImg, err := utils.ReadImage(p.foreground, cfg.Size)
	if err != nil {
		return err
	}
	bgImg, err := utils.ReadImage(p.background, cfg.Size)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"foreground": p.foreground,
		"background": p.background,
		"width":      fgImg.W,
		"height":     fgImg.H,
	}).Debug("Loaded images")

	threshold, err := utils.ParseThreshold(p.threshold, cfg.LenientThreshold)
	if err != nil {
		return err
	}

	opt := chromakey.OptionsFromSize(fgImg.Size())
	opt.Cutoff = cfg.Cutoff

	if p.inspect || p.paletteOut != "" {
		if err := inspect(cfg, p, fgImg, threshold, opt); err != nil {
			return err
		}
	}

	mask := chromakey.ClassifyFixed(fgImg, threshold)
	if err := emit(mask, fgImg, bgImg, p.out1, p.mask1); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"method":    "fixed",
		"threshold": threshold,
		"kept":      mask.Count(),
		"output":    p.out1,
	}).Info("Wrote composite")

	mask = chromakey.ClassifyAuto(fgImg, opt)
	if err := emit(mask, fgImg, bgImg, p.out2, p.mask2); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"method": "auto",
		"kept":   mask.Count(),
		"output": p.out2,
	}).Info("Wrote composite")
	return nil
}

func emit(mask *chromakey.Mask, fg, bg *chromakey.Image, out, maskOut string) error {
	composite, err := chromakey.Composite(mask, fg, bg)
	if err != nil {
		return apperrors.NewDimensionError("foreground and background differ in size", err)
	}
	if err := utils.SaveImage(composite, out); err != nil {
		return err
	}
	if maskOut != "" {
		if err := utils.SaveMask(mask, maskOut); err != nil {
			return err
		}
	}
	return nil
}

func inspect(cfg *config.Config, p params, img *chromakey.Image, threshold float64, opt chromakey.Options) error {
	report := chromakey.Inspect(img, threshold, opt)
	logger.WithFields(logrus.Fields{
		"reference":      report.Reference.Hex(),
		"center_sample":  report.Center.Colorful().Hex(),
		"sample_column":  opt.SampleColumn,
		"sample_rows":    opt.SampleRows,
		"auto_threshold": fmt.Sprintf("%.2f", report.AutoThreshold),
		"cutoff":         opt.Cutoff,
		"fixed_kept":     report.FixedKept,
		"auto_kept":      report.AutoKept,
		"pixels":         report.Pixels,
	}).Info("Key analysis")

	method, err := utils.ParsePaletteMethod(cfg.PaletteMethod)
	if err != nil {
		return apperrors.NewConfigError("bad palette method", err)
	}
	palette := utils.ExtractPalette(img.RGBA(), cfg.PaletteSize, method)
	utils.SortPaletteByBrightness(palette)
	for i, c := range palette {
		logger.WithFields(logrus.Fields{
			"index":        i,
			"color":        c.Hex(),
			"key_distance": fmt.Sprintf("%.2f", utils.KeyDistance(c, report.Reference)),
		}).Info("Palette entry")
	}
	if p.paletteOut != "" {
		if err := utils.SavePalette(palette, 64, p.paletteOut); err != nil {
			return err
		}
	}
	return nil
}
