package composer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/quotedeck/quotedeck/internal/models"
)

const (
	defaultFilename = "slideshow.pdf"
	lineSpacing     = 1.15
)

var errNoSlides = errors.New("no slides to compose")

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

type Options struct {
	PageSize      string
	CaptionHeight float64
	CaptionMargin float64
	FontSize      float64
	FontFamily    string
}

// Composer lays slides out as a landscape PDF, one page per slide
type Composer struct {
	opts Options
}

func New(opts Options) *Composer {
	if opts.PageSize == "" {
		opts.PageSize = "A4"
	}
	if opts.CaptionHeight == 0 {
		opts.CaptionHeight = 80
	}
	if opts.CaptionMargin == 0 {
		opts.CaptionMargin = 40
	}
	if opts.FontSize == 0 {
		opts.FontSize = 28
	}
	if opts.FontFamily == "" {
		opts.FontFamily = "Helvetica"
	}
	return &Composer{opts: opts}
}

// Compose renders slides in order. The returned document has exactly
// len(slides) pages or an error is returned.
func (c *Composer) Compose(theme string, slides []models.Slide) (*models.Document, error) {
	if len(slides) == 0 {
		return nil, &models.LayoutError{Err: errNoSlides}
	}

	start := time.Now()
	raw, err := c.render(theme, slides)
	if err != nil {
		return nil, &models.LayoutError{Err: err}
	}

	out, pages, err := optimize(raw)
	if err != nil {
		return nil, &models.LayoutError{Err: err}
	}
	if pages != len(slides) {
		return nil, &models.LayoutError{Err: fmt.Errorf("document has %d pages, expected %d", pages, len(slides))}
	}

	captions := make([]string, len(slides))
	for i, s := range slides {
		captions[i] = caption(s.Concept.Quote)
	}

	doc := &models.Document{
		ID:        uuid.NewString(),
		Theme:     strings.TrimSpace(theme),
		Filename:  Filename(theme),
		PageCount: pages,
		Captions:  captions,
		CreatedAt: time.Now().UTC(),
		Bytes:     out,
	}
	slog.Info("Document composed",
		"id", doc.ID,
		"pages", doc.PageCount,
		"bytes", doc.Size(),
		"duration_ms", time.Since(start).Milliseconds())
	return doc, nil
}

func (c *Composer) render(theme string, slides []models.Slide) ([]byte, error) {
	pdf := fpdf.New("L", "pt", c.opts.PageSize, "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(strings.TrimSpace(theme), true)
	pdf.SetCreator("quotedeck", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	for i, s := range slides {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(s.Image.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image %d: %w", i+1, err)
		}
		if cfg.Width == 0 || cfg.Height == 0 {
			return nil, fmt.Errorf("image %d has no dimensions", i+1)
		}
		imageType, err := fpdfImageType(format)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}

		pdf.AddPage()

		name := fmt.Sprintf("slide-%d", i)
		opts := fpdf.ImageOptions{ImageType: imageType}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(s.Image.Data))

		quote := caption(s.Concept.Quote)
		l := c.place(pageW, pageH, float64(cfg.Width), float64(cfg.Height), quote != "")
		pdf.ImageOptions(name, l.Image.X, l.Image.Y, l.Image.W, l.Image.H, false, opts, 0, "")
		if l.HasBar {
			c.drawCaption(pdf, tr(quote), l.Bar)
		}

		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("failed to lay out page %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type rect struct {
	X, Y, W, H float64
}

// layout is where one slide's image and caption bar go on the page
type layout struct {
	Image  rect
	Bar    rect
	HasBar bool
}

// place scales the image to fit the page without distortion and centers it.
// The caption bar spans the image width and sits on its bottom edge.
func (c *Composer) place(pageW, pageH, imgW, imgH float64, hasCaption bool) layout {
	scale := math.Min(pageW/imgW, pageH/imgH)
	w, h := imgW*scale, imgH*scale
	img := rect{X: (pageW - w) / 2, Y: (pageH - h) / 2, W: w, H: h}

	l := layout{Image: img, HasBar: hasCaption}
	if hasCaption {
		barH := c.opts.CaptionHeight
		l.Bar = rect{X: img.X, Y: img.Y + img.H - barH, W: img.W, H: barH}
	}
	return l
}

// captionLines sets the caption font and wraps text for a bar of width barW
func (c *Composer) captionLines(pdf *fpdf.Fpdf, text string, barW float64) []string {
	pdf.SetFont(c.opts.FontFamily, "B", c.opts.FontSize)
	return wrap(pdf, text, barW-c.opts.CaptionMargin)
}

// drawCaption paints the bar and centers the wrapped text inside it
func (c *Composer) drawCaption(pdf *fpdf.Fpdf, text string, bar rect) {
	pdf.SetFillColor(0, 0, 0)
	pdf.Rect(bar.X, bar.Y, bar.W, bar.H, "F")

	lines := c.captionLines(pdf, text, bar.W)
	pdf.SetTextColor(255, 255, 255)

	lineH := c.opts.FontSize * lineSpacing
	top := bar.Y + (bar.H-lineH*float64(len(lines)))/2
	for j, line := range lines {
		pdf.SetXY(bar.X, top+float64(j)*lineH)
		pdf.CellFormat(bar.W, lineH, line, "", 0, "CM", false, 0, "")
	}
}

// wrap breaks text on spaces so that each line fits within maxW. Words wider
// than maxW are split by character.
func wrap(pdf *fpdf.Fpdf, text string, maxW float64) []string {
	var lines []string
	var cur string
	for _, word := range strings.Fields(text) {
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if pdf.GetStringWidth(candidate) <= maxW {
			cur = candidate
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
		}
		cur = word
		for pdf.GetStringWidth(cur) > maxW && len(cur) > 1 {
			cut := len(cur) - 1
			for cut > 1 && pdf.GetStringWidth(cur[:cut]) > maxW {
				cut--
			}
			lines = append(lines, cur[:cut])
			cur = cur[cut:]
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func caption(quote string) string {
	return strings.ToUpper(strings.TrimSpace(quote))
}

func fpdfImageType(format string) (string, error) {
	switch format {
	case "jpeg":
		return "JPG", nil
	case "png":
		return "PNG", nil
	case "gif":
		return "GIF", nil
	default:
		return "", fmt.Errorf("unsupported image format %q", format)
	}
}

// optimize rewrites the PDF through pdfcpu and returns the validated page count
func optimize(raw []byte) ([]byte, int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(raw), &out, conf); err != nil {
		return nil, 0, fmt.Errorf("failed to optimize pdf: %w", err)
	}

	pages, err := api.PageCount(bytes.NewReader(out.Bytes()), conf)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return out.Bytes(), pages, nil
}

// Filename derives the download name from the theme
func Filename(theme string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(theme), "-"), "-")
	if slug == "" {
		return defaultFilename
	}
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "-")
	}
	return slug + ".pdf"
}
