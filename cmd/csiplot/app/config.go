package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

type Config struct {
	CSVPath      string
	DBPath       string
	SessionID    int64
	OutputFile   string
	Format       ImageFormat
	View         View
	Cycle        bool
	Theme        ColorTheme
	FontPath     string
	MinAmplitude *float64
	MaxAmplitude *float64
	Verbose      bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format: ImagePNG,
		View:   ViewTimeSeries,
		Theme:  DefaultTheme,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat, view, theme string
	var minAmplitude, maxAmplitude float64
	flag.StringVar(&c.CSVPath, "csv", "", "Path to a capture CSV file")
	flag.StringVar(&c.DBPath, "db", "", "Path to a capture database file")
	flag.Int64Var(&c.SessionID, "s", 1, "Session ID, when reading from a database")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.StringVar(&view, "view", string(ViewTimeSeries), "View to render. [time_series, heatmap, stats]")
	flag.BoolVar(&c.Cycle, "cycle", false, "Render every view, one image per view")
	flag.StringVar(&theme, "theme", string(DefaultTheme), "Color theme. [classic, grayscale, jungle, thermal, marine, default]")
	flag.StringVar(&c.FontPath, "font", "", "Path to a TTF font for annotations (optional)")
	flag.Float64Var(&minAmplitude, "min-amp", 0, "Define a manual minimum amplitude (format nn.n)")
	flag.Float64Var(&maxAmplitude, "max-amp", 0, "Define a manual maximum amplitude (format nn.n)")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.Parse()

	imageFormat = strings.ToLower(imageFormat)

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "min-amp" {
			c.MinAmplitude = &minAmplitude
		}
		if f.Name == "max-amp" {
			c.MaxAmplitude = &maxAmplitude
		}
	})

	parsedView, viewErr := ParseView(view)

	var err error
	if c.CSVPath == "" && c.DBPath == "" {
		err = errors.New("a capture file (-csv) or database (-db) is required")
	} else if c.CSVPath != "" && c.DBPath != "" {
		err = errors.New("only one of -csv and -db may be given")
	} else if c.DBPath != "" && c.SessionID <= 0 {
		err = errors.New("session id is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if viewErr != nil {
		err = viewErr
	} else if c.MinAmplitude != nil && c.MaxAmplitude != nil && *c.MinAmplitude >= *c.MaxAmplitude {
		err = errors.New("min amplitude must be below max amplitude")
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	c.View = parsedView
	c.Theme = ColorTheme(theme)
	c.Format = ImageFormat(imageFormat)
	return c, nil
}

// OutputFileFor returns the destination path of one rendered view. With
// -cycle each view gets its own suffixed file, otherwise the configured
// name is used as is.
func (c *Config) OutputFileFor(view View) string {
	if c.Cycle {
		return fmt.Sprintf("%s_%s.%s", c.OutputFile, view, c.Format)
	}
	return fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
}

// Views returns the list of views to render.
func (c *Config) Views() []View {
	if c.Cycle {
		return AllViews()
	}
	return []View{c.View}
}
