package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Kind is a supported document family.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindDOC  Kind = "doc"
	KindTXT  Kind = "txt"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDOC  = "application/msword"
	mimeTXT  = "text/plain"
)

const (
	DefaultMinTextLength = 100
	DefaultMaxTextLength = 15000

	// TruncationMarker is appended to text cut at the maximum length.
	TruncationMarker = "\n\n[Content truncated due to length...]"
)

var (
	ErrUnsupportedFileType     = errors.New("unsupported file type")
	ErrLegacyFormatUnsupported = errors.New("legacy .doc files are not supported, please convert the document to DOCX")
	ErrNoReadableText          = errors.New("no readable text found in document")
	ErrTextTooShort            = errors.New("extracted text is too short")
)

var mimeKinds = map[string]Kind{
	mimePDF:  KindPDF,
	mimeDOCX: KindDOCX,
	mimeDOC:  KindDOC,
	mimeTXT:  KindTXT,
}

var extKinds = map[string]Kind{
	".pdf":  KindPDF,
	".docx": KindDOCX,
	".doc":  KindDOC,
	".txt":  KindTXT,
}

// Limits bounds the accepted text length in characters.
type Limits struct {
	MinLength int
	MaxLength int
}

// DefaultLimits returns the standard 100..15000 character window.
func DefaultLimits() Limits {
	return Limits{MinLength: DefaultMinTextLength, MaxLength: DefaultMaxTextLength}
}

// Result is normalized document text plus format-specific side data.
type Result struct {
	Kind      Kind              `json:"kind"`
	Text      string            `json:"-"`
	Length    int               `json:"length"`
	Truncated bool              `json:"truncated"`
	PageCount int               `json:"pageCount,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// Extractor turns document bytes into validated plain text.
type Extractor struct {
	Limits Limits
}

// New builds an Extractor, filling zero limits with defaults.
func New(limits Limits) *Extractor {
	if limits.MinLength <= 0 {
		limits.MinLength = DefaultMinTextLength
	}
	if limits.MaxLength <= 0 {
		limits.MaxLength = DefaultMaxTextLength
	}
	return &Extractor{Limits: limits}
}

// ResolveKind picks the document kind from the MIME hint, falling back to the file extension.
func ResolveKind(mimeHint, fileName string) (Kind, error) {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeHint, ";")[0]))
	if kind, ok := mimeKinds[clean]; ok {
		return kind, nil
	}
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))
	if kind, ok := extKinds[ext]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("%w: mime=%q name=%q", ErrUnsupportedFileType, clean, fileName)
}

// Extract decodes data, normalizes the text and enforces the length window.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeHint, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	kind, err := ResolveKind(mimeHint, fileName)
	if err != nil {
		return Result{}, err
	}

	res := Result{Kind: kind}
	var text string
	switch kind {
	case KindDOC:
		return Result{}, ErrLegacyFormatUnsupported
	case KindPDF:
		text, err = extractPDF(data, &res)
	case KindDOCX:
		text, err = extractDOCX(data, &res)
	case KindTXT:
		text = strings.ToValidUTF8(string(data), "\uFFFD")
	}
	if err != nil {
		return Result{}, err
	}
	if kind != KindTXT && strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("%w (%s)", ErrNoReadableText, kind)
	}

	text = Normalize(text)
	text, length, truncated, err := e.applyLimits(text)
	if err != nil {
		return Result{}, err
	}
	res.Text = text
	res.Length = length
	res.Truncated = truncated
	return res, nil
}

func (e *Extractor) applyLimits(text string) (string, int, bool, error) {
	runes := []rune(text)
	if len(runes) < e.Limits.MinLength {
		return "", 0, false, fmt.Errorf("%w: %d characters, at least %d required", ErrTextTooShort, len(runes), e.Limits.MinLength)
	}
	if len(runes) > e.Limits.MaxLength {
		return string(runes[:e.Limits.MaxLength]) + TruncationMarker, e.Limits.MaxLength, true, nil
	}
	return text, len(runes), false, nil
}

var pdfInfoKeys = []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer"}

func extractPDF(data []byte, res *Result) (text string, err error) {
	// ledongthuc/pdf panics on some malformed xref tables.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%w: malformed pdf: %v", ErrNoReadableText, rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", ErrNoReadableText, err)
	}
	res.PageCount = reader.NumPage()

	info := reader.Trailer().Key("Info")
	if !info.IsNull() {
		meta := map[string]string{}
		for _, key := range pdfInfoKeys {
			if v := strings.TrimSpace(info.Key(key).Text()); v != "" {
				meta[key] = v
			}
		}
		if len(meta) > 0 {
			res.Metadata = meta
		}
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: read pdf text: %v", ErrNoReadableText, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: read pdf text: %v", ErrNoReadableText, err)
	}
	return buf.String(), nil
}
