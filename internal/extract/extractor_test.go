package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	pkgerrors "talent-match/pkg/errors"
)

type fakeOCR struct {
	text       string
	err        error
	degradedOK bool

	calls         int
	degradedCalls int
}

func (f *fakeOCR) OCR(_ context.Context, _ []byte, _ string, degraded bool) (string, error) {
	f.calls++
	if degraded {
		f.degradedCalls++
		if f.degradedOK {
			return f.text, nil
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func testExtractor(ocr OCRClient) *Extractor {
	return New(ocr, Config{MinAlphaPerPage: 20, MinTotalChars: 10}, zerolog.Nop())
}

func TestExtract_NativeTextLayerWins(t *testing.T) {
	ocr := &fakeOCR{text: "should not be used"}
	e := testExtractor(ocr)

	body := strings.Repeat("resume text with skills ", 5)
	res, err := e.Extract(context.Background(), []byte(body), MimePlain)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Method != MethodNative {
		t.Fatalf("expected native method, got %s", res.Method)
	}
	if ocr.calls != 0 {
		t.Fatalf("OCR must not run when the text layer is dense")
	}
}

func TestExtract_LowDensityFallsBackToOCR(t *testing.T) {
	ocr := &fakeOCR{text: strings.Repeat("ocr recovered resume text ", 4)}
	e := testExtractor(ocr)

	res, err := e.Extract(context.Background(), []byte("x"), MimePlain)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Method != MethodOCR {
		t.Fatalf("expected ocr method, got %s", res.Method)
	}
	if ocr.calls != 1 {
		t.Fatalf("expected one OCR call, got %d", ocr.calls)
	}
}

func TestExtract_OCRFaultRetriesDegradedOnce(t *testing.T) {
	ocr := &fakeOCR{
		text:       strings.Repeat("degraded profile output ", 4),
		err:        errors.New("engine crash"),
		degradedOK: true,
	}
	e := testExtractor(ocr)

	res, err := e.Extract(context.Background(), []byte("x"), MimePlain)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Method != MethodOCR {
		t.Fatalf("expected ocr method, got %s", res.Method)
	}
	if ocr.degradedCalls != 1 {
		t.Fatalf("expected exactly one degraded retry, got %d", ocr.degradedCalls)
	}
}

func TestExtract_BothPathsFailIsExtractionFailed(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("engine crash")}
	e := testExtractor(ocr)

	_, err := e.Extract(context.Background(), []byte("x"), MimePlain)
	if !errors.Is(err, pkgerrors.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
	if ocr.calls != 2 {
		t.Fatalf("expected normal call plus one degraded retry, got %d", ocr.calls)
	}
}

func TestExtract_GarbageOCROutputIsUnreadable(t *testing.T) {
	ocr := &fakeOCR{text: "::"}
	e := testExtractor(ocr)

	_, err := e.Extract(context.Background(), []byte("x"), MimePlain)
	if !errors.Is(err, pkgerrors.ErrUnreadableDocument) {
		t.Fatalf("expected ErrUnreadableDocument, got %v", err)
	}
}

func TestExtract_UnsupportedMime(t *testing.T) {
	e := testExtractor(&fakeOCR{})
	_, err := e.Extract(context.Background(), []byte("data"), "image/png")
	if !errors.Is(err, pkgerrors.ErrUnreadableDocument) && !errors.Is(err, pkgerrors.ErrExtractionFailed) {
		t.Fatalf("unsupported mime must fail extraction, got %v", err)
	}
}

func TestNumericSnippets(t *testing.T) {
	text := "B.Tech CSE, CGPA: 8.4/10\nJEE Rank: 12,450\nClass XII: 91%\n2018 2022"
	s := NumericSnippets(text)

	if s.CGPA != "8.4/10" {
		t.Fatalf("cgpa snippet = %q", s.CGPA)
	}
	if s.JEERank != "12450" {
		t.Fatalf("jee snippet = %q", s.JEERank)
	}
	if s.Percentage != "91" {
		t.Fatalf("percentage snippet = %q", s.Percentage)
	}
	if len(s.Years) != 2 {
		t.Fatalf("years = %v", s.Years)
	}
}

func TestCleanText(t *testing.T) {
	in := "line one\r\r\n\n\nline two •"
	out := CleanText(in)
	if strings.Contains(out, "•") {
		t.Fatalf("non-ascii must be stripped: %q", out)
	}
	if strings.Contains(out, "\n\n\n") {
		t.Fatalf("blank runs must collapse: %q", out)
	}
}
