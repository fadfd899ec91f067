package assets

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pierrec/lz4/v4"
	"golang.org/x/image/bmp"
)

type texFile struct {
	format     uint32
	w, h       uint32
	imgW, imgH uint32
	data       []byte
	lz4        bool
	rawSize    uint32
}

func (tf texFile) bytes() []byte {
	var b bytes.Buffer
	u := func(v uint32) { binary.Write(&b, binary.LittleEndian, v) }
	b.WriteString("TEXV0005\x00")
	b.WriteString("TEXI0001\x00")
	u(tf.format)
	u(0)
	u(tf.w)
	u(tf.h)
	u(tf.imgW)
	u(tf.imgH)
	u(0)
	b.WriteString("TEXB0003\x00")
	u(1)
	u(0xFFFFFFFF)
	u(1)
	u(tf.w)
	u(tf.h)
	if tf.lz4 {
		u(1)
	} else {
		u(0)
	}
	u(tf.rawSize)
	u(uint32(len(tf.data)))
	b.Write(tf.data)
	return b.Bytes()
}

func TestDecodeTexRGBA(t *testing.T) {
	data := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 9, 9, 9, 9,
	}
	img, err := DecodeTex(bytes.NewReader(texFile{format: texFormatRGBA, w: 2, h: 2, imgW: 2, imgH: 1, data: data}.bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Errorf("bounds = %v, want the 2x1 image area", img.Bounds())
	}
	if got := color.NRGBAModel.Convert(img.At(1, 0)); got != (color.NRGBA{G: 255, A: 255}) {
		t.Errorf("pixel (1,0) = %v", got)
	}
}

func TestDecodeTexLZ4R8(t *testing.T) {
	raw := bytes.Repeat([]byte{0x80}, 64*64)
	dst := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := lz4.CompressBlock(raw, dst, nil)
	if err != nil || n == 0 {
		t.Fatalf("CompressBlock() = %d, %v", n, err)
	}

	tf := texFile{format: texFormatR8, w: 64, h: 64, imgW: 64, imgH: 64, data: dst[:n], lz4: true, rawSize: uint32(len(raw))}
	img, err := DecodeTex(bytes.NewReader(tf.bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if got := color.NRGBAModel.Convert(img.At(10, 20)); got != (color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 255}) {
		t.Errorf("pixel = %v", got)
	}
}

func TestDecodeTexRejectsBadInput(t *testing.T) {
	if _, err := DecodeTex(bytes.NewReader([]byte("PNG\x00 nope nope"))); !errors.Is(err, ErrNotTex) {
		t.Errorf("bad magic error = %v, want ErrNotTex", err)
	}
	if _, err := DecodeTex(bytes.NewReader(nil)); !errors.Is(err, ErrNotTex) {
		t.Errorf("empty input error = %v, want ErrNotTex", err)
	}

	tf := texFile{format: texFormatRGBA, w: 4, h: 4, data: make([]byte, 7)}
	if _, err := DecodeTex(bytes.NewReader(tf.bytes())); err == nil {
		t.Error("short RGBA payload accepted")
	}
	full := tf.bytes()
	if _, err := DecodeTex(bytes.NewReader(full[:len(full)-3])); err == nil {
		t.Error("truncated file accepted")
	}
}

func TestFixAlpha(t *testing.T) {
	// 3x3, centre pixel weak but bridged left/right.
	pix := make([]byte, 3*3*4)
	set := func(x, y int, a byte) { pix[(y*3+x)*4+3] = a }
	set(0, 1, 250)
	set(1, 1, 100)
	set(2, 1, 250)
	set(0, 0, 150)
	fixAlpha(pix, 3, 3)

	if pix[(1*3+1)*4+3] != 255 {
		t.Error("bridged pixel not made opaque")
	}
	if pix[3] != 0 {
		t.Error("weak edge pixel kept its alpha")
	}
	if pix[(1*3+0)*4+3] != 255 {
		t.Error("strong pixel not made opaque")
	}
}

func TestValidate(t *testing.T) {
	err := Set{RainForeground: image.NewNRGBA(image.Rect(0, 0, 1, 1))}.Validate()
	var missing *MissingAssetError
	if !errors.As(err, &missing) {
		t.Fatalf("Validate() = %v, want *MissingAssetError", err)
	}
	want := []string{DropAlpha, DropColor, RainBackground}
	if !reflect.DeepEqual(missing.Keys, want) {
		t.Errorf("missing = %v, want %v", missing.Keys, want)
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func encoded(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	var b bytes.Buffer
	if err := encode(&b, img); err != nil {
		t.Fatal(err)
	}
	return b.Bytes()
}

func pngBytes(t *testing.T) []byte {
	return encoded(t, func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) })
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "drop-alpha.png"), pngBytes(t))
	writeFile(t, filepath.Join(root, "images", "drop-color.bmp"),
		encoded(t, func(b *bytes.Buffer, img image.Image) error { return bmp.Encode(b, img) }))
	writeFile(t, filepath.Join(root, "images", "texture-rain-fg.jpg"),
		encoded(t, func(b *bytes.Buffer, img image.Image) error { return jpeg.Encode(b, img, nil) }))
	writeFile(t, filepath.Join(root, "materials", "texture-rain-bg.tex"),
		texFile{format: texFormatRGBA, w: 1, h: 1, imgW: 1, imgH: 1, data: []byte{1, 2, 3, 4}}.bytes())
	writeFile(t, filepath.Join(root, "texture-sun-fg.png"), []byte("not a png"))

	set, err := LoadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range Required {
		if set[k] == nil {
			t.Errorf("%s not loaded", k)
		}
	}
	if _, ok := set[SunForeground]; ok {
		t.Error("undecodable optional image ended up in the set")
	}
	if len(set) != len(Required) {
		t.Errorf("set has %d images, want %d", len(set), len(Required))
	}
}

func TestLoadDirMissingRequired(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "drop-alpha.png"), pngBytes(t))
	writeFile(t, filepath.Join(root, "drop-color.png"), pngBytes(t))

	_, err := LoadDir(root)
	var missing *MissingAssetError
	if !errors.As(err, &missing) {
		t.Fatalf("LoadDir() = %v, want *MissingAssetError", err)
	}
	if want := []string{RainBackground, RainForeground}; !reflect.DeepEqual(missing.Keys, want) {
		t.Errorf("missing = %v, want %v", missing.Keys, want)
	}
}

func buildPkg(files map[string][]byte, order []string) []byte {
	var b bytes.Buffer
	str := func(s string) {
		binary.Write(&b, binary.LittleEndian, uint32(len(s)))
		b.WriteString(s)
	}
	str("PKGV0001")
	binary.Write(&b, binary.LittleEndian, uint32(len(order)))
	var offset uint32
	for _, name := range order {
		str(name)
		binary.Write(&b, binary.LittleEndian, offset)
		binary.Write(&b, binary.LittleEndian, uint32(len(files[name])))
		offset += uint32(len(files[name]))
	}
	for _, name := range order {
		b.Write(files[name])
	}
	return b.Bytes()
}

func TestLoadPackage(t *testing.T) {
	files := map[string][]byte{
		"scene.json":                     []byte("{}"),
		"materials/drop-alpha.png":       pngBytes(t),
		"materials/drop-color.png":       pngBytes(t),
		"images/texture-rain-fg.png":     pngBytes(t),
		"extra/deep/texture-rain-bg.png": pngBytes(t),
	}
	order := []string{"scene.json", "materials/drop-alpha.png", "materials/drop-color.png", "images/texture-rain-fg.png", "extra/deep/texture-rain-bg.png"}
	data := buildPkg(files, order)

	pkg, err := ReadPackage(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if pkg.Version != "PKGV0001" || len(pkg.Names()) != 5 {
		t.Errorf("version = %q names = %v", pkg.Version, pkg.Names())
	}
	if name, ok := pkg.FindImage(DropAlpha); !ok || name != "materials/drop-alpha.png" {
		t.Errorf("FindImage(drop-alpha) = %q, %v", name, ok)
	}
	if name, ok := pkg.FindImage(RainBackground); !ok || name != "extra/deep/texture-rain-bg.png" {
		t.Errorf("FindImage(rain bg) = %q, %v", name, ok)
	}

	set, err := LoadPackage(pkg)
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 4 {
		t.Errorf("loaded %d images, want 4", len(set))
	}
}

func TestReadPackageRejectsOverrun(t *testing.T) {
	data := buildPkg(map[string][]byte{"a.png": []byte("12345")}, []string{"a.png"})
	if _, err := ReadPackage(bytes.NewReader(data), int64(len(data)-2)); err == nil {
		t.Error("entry past the end of the archive accepted")
	}
}

func TestPackageEntryMissingIsError(t *testing.T) {
	data := buildPkg(map[string][]byte{"a.png": pngBytes(t)}, []string{"a.png"})
	pkg, err := ReadPackage(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := packageEntry(pkg, "gone.png")(); err == nil {
		t.Error("opening an entry that is not in the package succeeded")
	}
	rc, err := packageEntry(pkg, "a.png")()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	if _, err := Decode("a.png", rc); err != nil {
		t.Errorf("Decode(a.png) = %v", err)
	}
}
