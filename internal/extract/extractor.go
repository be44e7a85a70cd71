// Package extract turns a raw uploaded document into plain text. It prefers
// the document's native text layer and falls back to OCR when the text
// density says the document is a scan.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"talent-match/internal/domain/profile"
	pkgerrors "talent-match/pkg/errors"

	docxlib "github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog"
	pdfextractor "github.com/unidoc/unipdf/v3/extractor"
	pdfmodel "github.com/unidoc/unipdf/v3/model"
)

type Method string

const (
	MethodNative Method = "native"
	MethodOCR    Method = "ocr"
)

const (
	MimePDF   = "application/pdf"
	MimeDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC   = "application/msword"
	MimePlain = "text/plain"
)

// OCRClient runs a remote vision model over the document bytes. The degraded
// flag selects the faster/smaller profile used for the single retry.
type OCRClient interface {
	OCR(ctx context.Context, data []byte, mimeType string, degraded bool) (string, error)
}

type Config struct {
	// MinAlphaPerPage is the text-density floor below which the native text
	// layer is considered missing and OCR runs instead.
	MinAlphaPerPage int
	// MinTotalChars is the floor below which the best available text is
	// garbage and the document is unreadable.
	MinTotalChars int
	OCRTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinAlphaPerPage: 200,
		MinTotalChars:   64,
		OCRTimeout:      2 * time.Minute,
	}
}

type Result struct {
	Text     string
	Method   Method
	Pages    int
	Snippets profile.NumericSnippets
}

type Extractor struct {
	ocr OCRClient
	cfg Config
	log zerolog.Logger
}

func New(ocr OCRClient, cfg Config, log zerolog.Logger) *Extractor {
	if cfg.MinAlphaPerPage <= 0 {
		cfg.MinAlphaPerPage = DefaultConfig().MinAlphaPerPage
	}
	if cfg.MinTotalChars <= 0 {
		cfg.MinTotalChars = DefaultConfig().MinTotalChars
	}
	if cfg.OCRTimeout <= 0 {
		cfg.OCRTimeout = DefaultConfig().OCRTimeout
	}
	return &Extractor{ocr: ocr, cfg: cfg, log: log}
}

// Extract returns the document text and the method that produced it.
// Returns ErrUnreadableDocument when neither path yields usable text and
// ErrExtractionFailed when the OCR engine itself faults after its retry.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (Result, error) {
	native, pages, nativeErr := e.nativeText(data, mimeType)
	if nativeErr != nil {
		e.log.Debug().Err(nativeErr).Str("mime_type", mimeType).Msg("native text layer unavailable")
	}
	if pages < 1 {
		pages = 1
	}

	if e.dense(native, pages) {
		text := CleanText(native)
		return Result{Text: text, Method: MethodNative, Pages: pages, Snippets: NumericSnippets(text)}, nil
	}

	if e.ocr == nil {
		return e.finishWeak(native, pages)
	}

	ocrText, err := e.runOCR(ctx, data, mimeType)
	if err != nil {
		// OCR engine fault. The native text may still be salvageable.
		if res, werr := e.finishWeak(native, pages); werr == nil {
			return res, nil
		}
		return Result{}, fmt.Errorf("%w: %v", pkgerrors.ErrExtractionFailed, err)
	}

	text := CleanText(ocrText)
	if len(text) < len(CleanText(native)) {
		// Keep whichever path recovered more.
		return e.finishWeak(native, pages)
	}
	if !e.readable(text) {
		return Result{}, pkgerrors.ErrUnreadableDocument
	}
	return Result{Text: text, Method: MethodOCR, Pages: pages, Snippets: NumericSnippets(text)}, nil
}

// runOCR applies the call timeout and retries once with the degraded profile
// on a fault. A timeout follows the same path as a crash.
func (e *Extractor) runOCR(ctx context.Context, data []byte, mimeType string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.OCRTimeout)
	text, err := e.ocr.OCR(callCtx, data, mimeType, false)
	cancel()
	if err == nil {
		return text, nil
	}

	e.log.Warn().Err(err).Msg("OCR failed, retrying with degraded profile")
	callCtx, cancel = context.WithTimeout(ctx, e.cfg.OCRTimeout)
	defer cancel()
	return e.ocr.OCR(callCtx, data, mimeType, true)
}

func (e *Extractor) finishWeak(native string, pages int) (Result, error) {
	text := CleanText(native)
	if !e.readable(text) {
		return Result{}, pkgerrors.ErrUnreadableDocument
	}
	return Result{Text: text, Method: MethodNative, Pages: pages, Snippets: NumericSnippets(text)}, nil
}

func (e *Extractor) dense(text string, pages int) bool {
	return alphaCount(text) >= e.cfg.MinAlphaPerPage*pages
}

func (e *Extractor) readable(text string) bool {
	return alphaCount(text) >= e.cfg.MinTotalChars
}

func alphaCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

func (e *Extractor) nativeText(data []byte, mimeType string) (string, int, error) {
	switch mimeType {
	case MimePDF:
		return pdfText(data)
	case MimeDOCX, MimeDOC:
		text, err := docxText(data)
		return text, 1, err
	case MimePlain:
		return string(data), 1, nil
	default:
		return "", 1, fmt.Errorf("%w: %s", pkgerrors.ErrUnsupportedMediaType, mimeType)
	}
}

func pdfText(data []byte) (string, int, error) {
	reader, err := pdfmodel.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", 0, fmt.Errorf("read pdf: %w", err)
	}
	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", 0, fmt.Errorf("page count: %w", err)
	}
	if numPages == 0 {
		return "", 0, fmt.Errorf("pdf has no pages")
	}

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := pdfextractor.New(page)
		if err != nil {
			continue
		}
		pageText, err := ex.ExtractText()
		if err != nil {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n\n")
	}
	return b.String(), numPages, nil
}

var xmlTagRe = regexp.MustCompile(`<[^>]+>`)

func docxText(data []byte) (string, error) {
	d, err := docxlib.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer d.Close()

	content := d.Editable().GetContent()
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	return xmlTagRe.ReplaceAllString(content, ""), nil
}
