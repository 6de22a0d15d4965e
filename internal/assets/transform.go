package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	qualityAuto    = 80
	qualityDefault = 90

	// maxPixels bounds width*height before a full decode.
	maxPixels = 40_000_000
)

// Rendition is a locally transformed asset together with its eager variants.
type Rendition struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
	PageCount   int
	Variants    []VariantRendition
}

type VariantRendition struct {
	Name        string
	Data        []byte
	ContentType string
	Ext         string
}

// Render applies the recipe to the content. Types it cannot transform return ErrUnsupportedContent;
// content of a supported type that fails to decode returns ErrInvalidContent.
func Render(mimeType string, r io.ReadSeeker, recipe model.Recipe) (*Rendition, error) {
	switch mimeType {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return renderImage(r, recipe)
	case "application/pdf":
		return renderPDF(r, recipe)
	default:
		return nil, ErrUnsupportedContent
	}
}

func renderImage(r io.ReadSeeker, recipe model.Recipe) (*Rendition, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image config: %v", ErrInvalidContent, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: image dimensions %dx%d exceed %d pixels", ErrInvalidContent, cfg.Width, cfg.Height, maxPixels)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("transform: rewind image: %w", err)
	}

	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", ErrInvalidContent, err)
	}

	enc := encoderFor(format, recipe)

	img := src
	if step, ok := recipe.Step(model.StepResize); ok {
		img = resize(src, step)
	}
	data, err := enc.encode(img)
	if err != nil {
		return nil, err
	}

	out := &Rendition{
		Data:        data,
		ContentType: enc.contentType,
		Ext:         enc.ext,
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
	}
	for _, v := range recipe.Variants() {
		vd, err := enc.encode(resize(src, v.Resize))
		if err != nil {
			return nil, fmt.Errorf("transform: variant %q: %w", v.Name, err)
		}
		out.Variants = append(out.Variants, VariantRendition{
			Name:        v.Name,
			Data:        vd,
			ContentType: enc.contentType,
			Ext:         enc.ext,
		})
	}
	return out, nil
}

type encoder struct {
	format      string
	quality     int
	contentType string
	ext         string
}

func encoderFor(sourceFormat string, recipe model.Recipe) encoder {
	e := encoder{format: sourceFormat, quality: qualityDefault}
	if q, ok := recipe.Step(model.StepQuality); ok && q.Value == "auto" {
		e.quality = qualityAuto
	}
	if _, ok := recipe.Step(model.StepFormat); ok {
		e.format = "webp"
	}
	switch e.format {
	case "webp":
		e.contentType, e.ext = "image/webp", "webp"
	case "jpeg":
		e.contentType, e.ext = "image/jpeg", "jpg"
	case "gif":
		e.contentType, e.ext = "image/gif", "gif"
	default:
		e.format, e.contentType, e.ext = "png", "image/png", "png"
	}
	return e
}

func (e encoder) encode(img image.Image) ([]byte, error) {
	buf := &bytes.Buffer{}
	var err error
	switch e.format {
	case "webp":
		err = webp.Encode(buf, img, &webp.Options{Quality: float32(e.quality)})
	case "jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: e.quality})
	case "gif":
		err = gif.Encode(buf, img, nil)
	default:
		err = png.Encode(buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("transform: failed to encode %s: %w", e.format, err)
	}
	return buf.Bytes(), nil
}

// resize never upscales. Gravity is always centred.
func resize(src image.Image, step model.TransformStep) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if step.Width <= 0 || step.Height <= 0 || sw == 0 || sh == 0 {
		return src
	}

	sr := b
	if step.Crop == model.CropThumb {
		sr = centreCrop(b, step.Width, step.Height)
	}

	cw, ch := sr.Dx(), sr.Dy()
	scale := min(1.0, float64(step.Width)/float64(cw), float64(step.Height)/float64(ch))
	dw := max(1, int(float64(cw)*scale+0.5))
	dh := max(1, int(float64(ch)*scale+0.5))
	if dw == cw && dh == ch && sr == b {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sr, draw.Over, nil)
	return dst
}

// centreCrop returns the largest centred rectangle of b with the w:h aspect ratio.
func centreCrop(b image.Rectangle, w, h int) image.Rectangle {
	sw, sh := b.Dx(), b.Dy()
	cw, ch := sw, sh
	if sw*h > sh*w {
		cw = sh * w / h
	} else {
		ch = sw * h / w
	}
	cw, ch = max(1, cw), max(1, ch)
	x0 := b.Min.X + (sw-cw)/2
	y0 := b.Min.Y + (sh-ch)/2
	return image.Rect(x0, y0, x0+cw, y0+ch)
}

func renderPDF(r io.ReadSeeker, recipe model.Recipe) (*Rendition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("transform: failed to read PDF: %w", err)
	}

	if _, ok := recipe.Step(model.StepOptimise); ok {
		buf := &bytes.Buffer{}
		if err := api.Optimize(bytes.NewReader(data), buf, nil); err != nil {
			return nil, fmt.Errorf("%w: pdfcpu optimization failed: %v", ErrInvalidContent, err)
		}
		data = buf.Bytes()
	}

	pages, err := pageCount(data)
	if err != nil {
		return nil, err
	}
	return &Rendition{
		Data:        data,
		ContentType: "application/pdf",
		Ext:         "pdf",
		PageCount:   pages,
	}, nil
}

func pageCount(data []byte) (int, error) {
	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read PDF pages: %v", ErrInvalidContent, err)
	}
	return rd.NumPage(), nil
}
