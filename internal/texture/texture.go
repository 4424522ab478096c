package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	gomath "math"
	"path"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/splatgen/pkg/math"
)

// Decode decodes image data. TGA has no magic number so it is selected by
// the name's extension; every other format is sniffed.
func Decode(data []byte, name string) (image.Image, error) {
	if strings.EqualFold(path.Ext(name), ".tga") {
		return DecodeTGA(data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return img, nil
}

// Load reads and decodes name from fsys. With magentaKey set, RO's magenta
// color key becomes transparent.
func Load(fsys fs.FS, name string, magentaKey bool) (*image.RGBA, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data, name)
	if err != nil {
		return nil, err
	}
	return ImageToRGBA(img, magentaKey), nil
}

// IsMagentaKey reports whether a color matches the RO transparency key.
// The tolerance absorbs BMP encoder variations.
func IsMagentaKey(r, g, b uint8) bool {
	return r >= 250 && g <= 10 && b >= 250
}

// ApplyMagentaKey makes magenta pixels transparent black in place.
func ApplyMagentaKey(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			if IsMagentaKey(img.Pix[i], img.Pix[i+1], img.Pix[i+2]) {
				copy(img.Pix[i:i+4], []byte{0, 0, 0, 0})
			}
		}
	}
}

// ImageToRGBA converts img to *image.RGBA, optionally applying the magenta
// key. An *image.RGBA input is copied only when the key is applied.
func ImageToRGBA(img image.Image, magentaKey bool) *image.RGBA {
	rgba, ok := img.(*image.RGBA)
	if !ok || magentaKey {
		rgba = image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	if magentaKey {
		ApplyMagentaKey(rgba)
	}
	return rgba
}

// Sample returns the nearest texel at uv as linear RGBA. UVs wrap and V
// runs top to bottom like the model formats store it.
func Sample(img image.Image, uv math.Vec2) [4]float64 {
	b := img.Bounds()
	if b.Empty() {
		return [4]float64{1, 1, 1, 1}
	}
	uv = uv.Wrap()
	x := b.Min.X + min(int(uv.X*float64(b.Dx())), b.Dx()-1)
	y := b.Min.Y + min(int(uv.Y*float64(b.Dy())), b.Dy()-1)

	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return [4]float64{
		SRGBToLinear(float64(c.R) / 255),
		SRGBToLinear(float64(c.G) / 255),
		SRGBToLinear(float64(c.B) / 255),
		float64(c.A) / 255,
	}
}

// SRGBToLinear applies the sRGB decoding curve to one channel.
func SRGBToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return gomath.Pow((c+0.055)/1.055, 2.4)
}
