package assets

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/mauserzjeh/dxt"
	"github.com/pierrec/lz4/v4"

	"rainfx/internal/utils"
)

// Wallpaper Engine texture formats.
const (
	texFormatRGBA = 0
	texFormatDXT5 = 4
	texFormatDXT1 = 7
	texFormatRG88 = 8
	texFormatR8   = 9
)

var ErrNotTex = errors.New("assets: not a TEXV0005 texture")

// texReader reads little-endian fields and keeps the first error.
type texReader struct {
	r   io.Reader
	err error
}

func (t *texReader) u32() uint32 {
	var v uint32
	if t.err == nil {
		t.err = binary.Read(t.r, binary.LittleEndian, &v)
	}
	return v
}

// magic reads an n byte tag followed by its NUL terminator.
func (t *texReader) magic(n int) string {
	b := make([]byte, n+1)
	if t.err == nil {
		_, t.err = io.ReadFull(t.r, b)
	}
	return string(bytes.TrimRight(b, "\x00"))
}

func (t *texReader) read(n uint32) []byte {
	if t.err != nil {
		return nil
	}
	b := make([]byte, n)
	_, t.err = io.ReadFull(t.r, b)
	return b
}

// DecodeTex decodes the first mipmap of a Wallpaper Engine .tex file.
func DecodeTex(r io.Reader) (image.Image, error) {
	t := &texReader{r: r}

	if m := t.magic(8); m != "TEXV0005" {
		if t.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotTex, t.err)
		}
		return nil, fmt.Errorf("%w (magic %q)", ErrNotTex, m)
	}
	t.magic(8) // TEXI0001

	format := t.u32()
	t.u32() // flags
	t.u32() // texture width
	t.u32() // texture height
	imgW := t.u32()
	imgH := t.u32()
	t.u32()

	container := t.magic(8)
	imageCount := t.u32()
	if container == "TEXB0003" || container == "TEXB0004" {
		t.u32() // free image format
	}
	if container == "TEXB0004" {
		t.u32() // is video
	}
	if t.err != nil {
		return nil, fmt.Errorf("assets: tex header: %w", t.err)
	}
	if imageCount == 0 {
		return nil, fmt.Errorf("assets: tex has no images")
	}

	utils.Debug("Tex: format %d, %dx%d, container %s", format, imgW, imgH, container)

	mipmaps := t.u32()
	if mipmaps == 0 {
		return nil, fmt.Errorf("assets: tex has no mipmaps")
	}
	mW := t.u32()
	mH := t.u32()
	var compressed bool
	var rawSize uint32
	if container != "TEXB0001" {
		compressed = t.u32() == 1
		rawSize = t.u32()
	}
	data := t.read(t.u32())
	if t.err != nil {
		return nil, fmt.Errorf("assets: tex mipmap: %w", t.err)
	}

	if compressed {
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("assets: tex lz4: %w", err)
		}
		data = out[:n]
	}

	pix, err := texPixels(format, data, mW, mH)
	if err != nil {
		return nil, err
	}

	img := &image.NRGBA{Pix: pix, Stride: int(mW) * 4, Rect: image.Rect(0, 0, int(mW), int(mH))}
	if imgW == 0 || imgH == 0 || imgW > mW || imgH > mH {
		return img, nil
	}
	return img.SubImage(image.Rect(0, 0, int(imgW), int(imgH))), nil
}

func texPixels(format uint32, data []byte, w, h uint32) ([]byte, error) {
	n := int(w) * int(h)
	blocks := int((w+3)/4) * int((h+3)/4)

	switch {
	case format == texFormatRGBA && len(data) == n*4:
		return data, nil
	case format == texFormatR8 && len(data) == n:
		pix := make([]byte, n*4)
		for i, v := range data {
			pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = v, v, v, 255
		}
		return pix, nil
	case format == texFormatRG88 && len(data) == n*2:
		pix := make([]byte, n*4)
		for i := 0; i < n; i++ {
			lum, a := data[i*2], data[i*2+1]
			pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = lum, lum, lum, a
		}
		return pix, nil
	case format == texFormatDXT5 && len(data) >= blocks*16:
		pix, err := dxt.DecodeDXT5(data, uint(w), uint(h))
		if err != nil {
			return nil, fmt.Errorf("assets: dxt5: %w", err)
		}
		fixAlpha(pix, int(w), int(h))
		return pix, nil
	case format == texFormatDXT1 && len(data) >= blocks*8:
		pix, err := dxt.DecodeDXT1(data, uint(w), uint(h))
		if err != nil {
			return nil, fmt.Errorf("assets: dxt1: %w", err)
		}
		return pix, nil
	}
	return nil, fmt.Errorf("assets: unsupported tex format %d with %d bytes for %dx%d", format, len(data), w, h)
}

// fixAlpha hardens the soft DXT5 alpha edges: strong alpha becomes opaque,
// weak alpha becomes clear unless it bridges two visible neighbours.
func fixAlpha(pix []byte, width, height int) {
	const (
		alphaThreshold = 200
		edgeThreshold  = 2
	)
	stride := width * 4
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := (y*width + x) * 4
			if pix[idx+3] > alphaThreshold {
				pix[idx+3] = 255
				continue
			}
			pix[idx+3] = 0
			if x == 0 || x == width-1 || y == 0 || y == height-1 {
				continue
			}
			left, right := pix[idx-4+3], pix[idx+4+3]
			up, down := pix[idx-stride+3], pix[idx+stride+3]
			if (left > edgeThreshold && right > edgeThreshold) || (up > edgeThreshold && down > edgeThreshold) {
				pix[idx+3] = 255
			}
		}
	}
}
