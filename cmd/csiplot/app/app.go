package app

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"csi-monitor/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	data := NewPlotData(NewSmoothBounds(0.3))

	var err error
	if config.CSVPath != "" {
		err = loadCSV(config.CSVPath, data, logger)
	} else {
		err = loadSession(ctx, config, data, logger)
	}
	if err != nil {
		return err
	}
	if len(data.Frames) == 0 {
		return fmt.Errorf("capture holds no frames")
	}

	bounds := data.BoundsTracker.Current()
	if config.MinAmplitude != nil {
		bounds.Min = *config.MinAmplitude
	}
	if config.MaxAmplitude != nil {
		bounds.Max = *config.MaxAmplitude
	}

	logger.Info("finished reading frames",
		slog.Group("stats",
			slog.Int("frames", len(data.Frames)),
			slog.Int("subcarriers", data.Subcarriers),
			slog.String("minTimestamp", data.TimestampStart.Local().Format(time.DateTime)),
			slog.String("maxTimestamp", data.TimestampEnd.Local().Format(time.DateTime)),
			slog.String("minAmplitude", fmt.Sprintf("%0.2f", bounds.Min)),
			slog.String("maxAmplitude", fmt.Sprintf("%0.2f", bounds.Max)),
		))

	renderer, err := NewRenderer(RenderConfig{
		FontPath:   config.FontPath,
		ColorTheme: config.Theme,
	})
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	defer renderer.Close()

	for _, view := range config.Views() {
		outputFile := config.OutputFileFor(view)

		logger.Info("rendering view",
			slog.Group("image",
				slog.String("view", string(view)),
				slog.String("destination", outputFile),
				slog.String("format", string(config.Format)),
				slog.String("theme", string(config.Theme)),
			))

		img, err := renderer.Render(view, data, bounds)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", view, err)
		}

		if err := writeImage(outputFile, config.Format, img); err != nil {
			return fmt.Errorf("writing %s: %w", outputFile, err)
		}
	}

	return nil
}

func loadCSV(path string, data *PlotData, logger *slog.Logger) error {
	logger.Info("reading capture file", slog.String("path", path))

	frames, err := storage.ReadCSV(path)
	if err != nil {
		return err
	}
	for _, frame := range frames {
		data.Update(frame)
	}
	return nil
}

func loadSession(ctx context.Context, config *Config, data *PlotData, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	logger.Info("reading capture session",
		slog.String("path", config.DBPath),
		slog.Int64("session", config.SessionID))

	reader, err := store.ReadFrames(ctx, config.SessionID)
	if err != nil {
		return err
	}
	defer reader.Close()

	for reader.Next(ctx) {
		data.Update(reader.Current())
	}
	return reader.Error()
}

func writeImage(path string, format ImageFormat, img *image.RGBA) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	switch format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
