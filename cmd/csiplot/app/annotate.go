package app

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	dpi      = 96.0
	fontSize = 12.0
)

// textDrawer draws axis labels. The y coordinate is the text baseline.
type textDrawer interface {
	DrawString(img *image.RGBA, s string, x, y int) error
	MeasureString(s string) int
	FontHeight() int
	Close() error
}

// newTextDrawer loads the TTF font at fontPath, or falls back to the
// built-in bitmap face when no font is given.
func newTextDrawer(fontPath string) (textDrawer, error) {
	if fontPath == "" {
		return &basicDrawer{face: basicfont.Face7x13}, nil
	}

	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}
	parsedFont, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &freetypeDrawer{
		context: ctx,
		face: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    fontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

type freetypeDrawer struct {
	context *freetype.Context
	face    font.Face
}

func (d *freetypeDrawer) DrawString(img *image.RGBA, s string, x, y int) error {
	d.context.SetClip(img.Bounds())
	d.context.SetDst(img)
	_, err := d.context.DrawString(s, freetype.Pt(x, y))
	return err
}

func (d *freetypeDrawer) MeasureString(s string) int {
	return font.MeasureString(d.face, s).Round()
}

func (d *freetypeDrawer) FontHeight() int {
	metrics := d.face.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

func (d *freetypeDrawer) Close() error {
	if d.face != nil {
		return d.face.Close()
	}
	return nil
}

type basicDrawer struct {
	face *basicfont.Face
}

func (d *basicDrawer) DrawString(img *image.RGBA, s string, x, y int) error {
	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: d.face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(s)
	return nil
}

func (d *basicDrawer) MeasureString(s string) int {
	return font.MeasureString(d.face, s).Round()
}

func (d *basicDrawer) FontHeight() int {
	return d.face.Ascent + d.face.Descent
}

func (d *basicDrawer) Close() error {
	return nil
}
