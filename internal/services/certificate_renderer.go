package services

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// A4 landscape at 150 dpi
const (
	certificateWidth  = 1754
	certificateHeight = 1240

	a4LandscapeWidthMM  = 297.0
	a4LandscapeHeightMM = 210.0
)

var (
	certificateBackground = color.NRGBA{R: 0xFB, G: 0xF8, B: 0xF1, A: 0xFF}
	certificateAccent     = color.NRGBA{R: 0x1E, G: 0x3A, B: 0x5F, A: 0xFF}
	certificateGold       = color.NRGBA{R: 0xB8, G: 0x93, B: 0x3E, A: 0xFF}
	certificateText       = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF}
	certificateMuted      = color.NRGBA{R: 0x6B, G: 0x6B, B: 0x6B, A: 0xFF}
)

// CertificateData is what gets printed on a certificate
type CertificateData struct {
	StudentName    string
	CourseTitle    string
	Hours          int
	Score          int
	CompletedAt    time.Time
	ValidationCode string
	ValidationURL  string
}

// CertificateRenderer draws the certificate template and wraps it in a PDF page
type CertificateRenderer struct {
	regular *truetype.Font
	bold    *truetype.Font
	italic  *truetype.Font
}

func NewCertificateRenderer() (*CertificateRenderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	italic, err := truetype.Parse(goitalic.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse italic font: %w", err)
	}
	return &CertificateRenderer{regular: regular, bold: bold, italic: italic}, nil
}

func (r *CertificateRenderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// RenderPNG draws the certificate as a PNG image
func (r *CertificateRenderer) RenderPNG(data CertificateData) ([]byte, error) {
	dc := gg.NewContext(certificateWidth, certificateHeight)
	w, h := float64(certificateWidth), float64(certificateHeight)
	cx := w / 2

	dc.SetColor(certificateBackground)
	dc.Clear()

	// Double frame
	dc.SetColor(certificateAccent)
	dc.SetLineWidth(14)
	dc.DrawRectangle(40, 40, w-80, h-80)
	dc.Stroke()
	dc.SetColor(certificateGold)
	dc.SetLineWidth(4)
	dc.DrawRectangle(72, 72, w-144, h-144)
	dc.Stroke()

	dc.SetColor(certificateAccent)
	dc.SetFontFace(r.face(r.bold, 76))
	dc.DrawStringAnchored("CERTIFICADO DE CONCLUSÃO", cx, 230, 0.5, 0.5)

	dc.SetColor(certificateGold)
	dc.SetLineWidth(3)
	dc.DrawLine(cx-320, 300, cx+320, 300)
	dc.Stroke()

	dc.SetColor(certificateText)
	dc.SetFontFace(r.face(r.regular, 36))
	dc.DrawStringAnchored("Certificamos que", cx, 400, 0.5, 0.5)

	dc.SetColor(certificateAccent)
	dc.SetFontFace(r.face(r.bold, 64))
	dc.DrawStringAnchored(data.StudentName, cx, 490, 0.5, 0.5)

	dc.SetColor(certificateText)
	dc.SetFontFace(r.face(r.regular, 36))
	dc.DrawStringAnchored("concluiu com êxito o curso", cx, 580, 0.5, 0.5)

	dc.SetColor(certificateAccent)
	dc.SetFontFace(r.face(r.bold, 48))
	dc.DrawStringWrapped(data.CourseTitle, cx, 650, 0.5, 0, w-400, 1.3, gg.AlignCenter)

	dc.SetColor(certificateText)
	dc.SetFontFace(r.face(r.regular, 32))
	dc.DrawStringAnchored(
		fmt.Sprintf("com carga horária de %d horas e aproveitamento de %d%% na avaliação final.", data.Hours, data.Score),
		cx, 830, 0.5, 0.5)
	dc.DrawStringAnchored(
		fmt.Sprintf("Concluído em %s", data.CompletedAt.Format("02/01/2006")),
		cx, 890, 0.5, 0.5)

	dc.SetColor(certificateMuted)
	dc.SetFontFace(r.face(r.italic, 26))
	dc.DrawStringAnchored(fmt.Sprintf("Código de validação: %s", data.ValidationCode), cx, 1040, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("Verifique a autenticidade em %s", data.ValidationURL), cx, 1085, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode certificate image: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF returns a single A4 landscape page holding the rendered certificate
func (r *CertificateRenderer) RenderPDF(data CertificateData) ([]byte, error) {
	img, err := r.RenderPNG(data)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Certificado - %s", data.CourseTitle), true)
	pdf.SetSubject(data.ValidationCode, true)
	pdf.SetCreationDate(data.CompletedAt)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	options := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("certificate", options, bytes.NewReader(img))
	pdf.ImageOptions("certificate", 0, 0, a4LandscapeWidthMM, a4LandscapeHeightMM, false, options, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to write certificate pdf: %w", err)
	}
	return out.Bytes(), nil
}
