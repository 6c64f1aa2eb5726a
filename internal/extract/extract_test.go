package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"resume-processor/internal/extract/extracttest"
)

func TestResolveKind(t *testing.T) {
	tests := []struct {
		name     string
		mime     string
		fileName string
		want     Kind
		wantErr  bool
	}{
		{name: "pdf mime", mime: "application/pdf", fileName: "x.bin", want: KindPDF},
		{name: "mime with params", mime: "Text/Plain; charset=utf-8", fileName: "", want: KindTXT},
		{name: "docx mime", mime: mimeDOCX, want: KindDOCX},
		{name: "doc mime", mime: "application/msword", want: KindDOC},
		{name: "extension fallback", mime: "application/octet-stream", fileName: "CV.DOCX", want: KindDOCX},
		{name: "extension only", fileName: "resume.pdf", want: KindPDF},
		{name: "unknown", mime: "image/png", fileName: "scan.png", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveKind(tt.mime, tt.fileName)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFileType) {
					t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveKind: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ResolveKind(%q, %q) = %q, want %q", tt.mime, tt.fileName, got, tt.want)
			}
		})
	}
}

func TestExtractLegacyDocRejected(t *testing.T) {
	_, err := New(DefaultLimits()).Extract(context.Background(), []byte(strings.Repeat("a", 500)), "", "old.doc")
	if !errors.Is(err, ErrLegacyFormatUnsupported) {
		t.Fatalf("expected legacy format error, got %v", err)
	}
}

func TestExtractTextLengthBoundaries(t *testing.T) {
	ex := New(DefaultLimits())
	ctx := context.Background()

	res, err := ex.Extract(ctx, []byte(strings.Repeat("a", 100)), "text/plain", "a.txt")
	if err != nil {
		t.Fatalf("100 chars should pass: %v", err)
	}
	if res.Length != 100 || res.Truncated {
		t.Fatalf("unexpected result: length=%d truncated=%v", res.Length, res.Truncated)
	}

	_, err = ex.Extract(ctx, []byte(strings.Repeat("a", 99)), "text/plain", "a.txt")
	if !errors.Is(err, ErrTextTooShort) {
		t.Fatalf("expected ErrTextTooShort, got %v", err)
	}
	if !strings.Contains(err.Error(), "99 characters") {
		t.Fatalf("expected count in message, got %q", err.Error())
	}

	exact := strings.Repeat("b", 15000)
	res, err = ex.Extract(ctx, []byte(exact), "text/plain", "a.txt")
	if err != nil {
		t.Fatalf("15000 chars: %v", err)
	}
	if res.Truncated || res.Text != exact {
		t.Fatalf("15000 chars should be untouched")
	}

	res, err = ex.Extract(ctx, []byte(strings.Repeat("c", 15001)), "text/plain", "a.txt")
	if err != nil {
		t.Fatalf("15001 chars: %v", err)
	}
	if !res.Truncated {
		t.Fatalf("expected truncated result")
	}
	if res.Text != strings.Repeat("c", 15000)+TruncationMarker {
		t.Fatalf("unexpected truncated text suffix %q", res.Text[len(res.Text)-50:])
	}
	if res.Length != 15000 {
		t.Fatalf("expected length 15000, got %d", res.Length)
	}
}

func TestExtractCountsCharactersNotBytes(t *testing.T) {
	// 100 two-byte runes.
	res, err := New(DefaultLimits()).Extract(context.Background(), []byte(strings.Repeat("é", 100)), "text/plain", "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Length != 100 {
		t.Fatalf("expected 100 characters, got %d", res.Length)
	}
}

func TestNormalize(t *testing.T) {
	in := "  Jane Doe\r\n\r\n\r\n\r\nEngineer\fPage two\rline  "
	want := "Jane Doe\n\nEngineer\nPage two\nline"
	if got := Normalize(in); got != want {
		t.Fatalf("Normalize() = %q, want %q", got, want)
	}
}

func TestExtractPDF(t *testing.T) {
	page1 := "Jane Doe\nEmail: a@b.com GitHub: github.com/alice\nSenior backend engineer with ten years of experience building APIs."
	page2 := "Experience\nAcme Corp, Staff Engineer, 2019 to present, payments platform and billing pipelines."
	data := extracttest.PDF("Jane Doe Resume", page1, page2)

	res, err := New(DefaultLimits()).Extract(context.Background(), data, "application/pdf", "jane.pdf")
	if err != nil {
		t.Fatalf("Extract pdf: %v", err)
	}
	if res.PageCount != 2 {
		t.Fatalf("expected 2 pages, got %d", res.PageCount)
	}
	if res.Metadata["Title"] != "Jane Doe Resume" {
		t.Fatalf("unexpected metadata: %#v", res.Metadata)
	}
	for _, want := range []string{"Jane Doe", "github.com/alice", "Acme Corp"} {
		if !strings.Contains(res.Text, want) {
			t.Fatalf("expected %q in text %q", want, res.Text)
		}
	}
}

func TestExtractPDFWithoutTextLayer(t *testing.T) {
	data := extracttest.PDF("scan", "")
	_, err := New(DefaultLimits()).Extract(context.Background(), data, "application/pdf", "scan.pdf")
	if !errors.Is(err, ErrNoReadableText) {
		t.Fatalf("expected ErrNoReadableText, got %v", err)
	}
}

func TestExtractDOCX(t *testing.T) {
	data := extracttest.DOCX(
		"John Smith",
		"Platform engineer focused on distributed systems, observability and developer tooling.",
		"Skills: Go, Kubernetes, PostgreSQL",
	)
	res, err := New(DefaultLimits()).Extract(context.Background(), data, "", "john.docx")
	if err != nil {
		t.Fatalf("Extract docx: %v", err)
	}
	if !strings.HasPrefix(res.Text, "John Smith\nPlatform engineer") {
		t.Fatalf("expected paragraphs split by newline, got %q", res.Text)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestExtractDOCXWithoutRelationshipsWarns(t *testing.T) {
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>` + strings.Repeat("content ", 20) + `</w:t></w:r></w:p></w:body></w:document>`
	data := extracttest.Zip(map[string]string{"word/document.xml": doc})

	res, err := New(DefaultLimits()).Extract(context.Background(), data, mimeDOCX, "bare.docx")
	if err != nil {
		t.Fatalf("Extract docx: %v", err)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected a warning for the fallback read")
	}
}

func TestExtractDOCXEmpty(t *testing.T) {
	_, err := New(DefaultLimits()).Extract(context.Background(), extracttest.DOCX(), mimeDOCX, "empty.docx")
	if !errors.Is(err, ErrNoReadableText) {
		t.Fatalf("expected ErrNoReadableText, got %v", err)
	}
}

func TestStripDocxXMLFallback(t *testing.T) {
	got, ok := stripDocxXML("<w:p><w:t>Hello</w:t></w:p><w:p><w:t>broken &</w:p>")
	if ok {
		t.Fatalf("expected fallback for malformed xml")
	}
	if !strings.Contains(got, "Hello") {
		t.Fatalf("expected text recovered, got %q", got)
	}
}

func TestStripDocxXMLDropsRevisionsAndFieldCodes(t *testing.T) {
	raw := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>` +
		`<w:r><w:t>Senior Engineer</w:t></w:r>` +
		`<w:del w:id="1" w:author="Alice"><w:r><w:delText>Intern at OldCo</w:delText></w:r></w:del></w:p>` +
		`<w:p><w:r><w:fldChar w:fldCharType="begin"/></w:r>` +
		`<w:r><w:instrText xml:space="preserve"> HYPERLINK "https://x.dev" </w:instrText></w:r>` +
		`<w:r><w:fldChar w:fldCharType="separate"/></w:r>` +
		`<w:r><w:t>site</w:t><w:tab/><w:t>2024</w:t></w:r>` +
		`<w:r><w:fldChar w:fldCharType="end"/></w:r></w:p>` +
		`</w:body></w:document>`

	got, ok := stripDocxXML(raw)
	if !ok {
		t.Fatalf("expected well-formed xml")
	}
	if want := "Senior Engineer\nsite\t2024"; got != want {
		t.Fatalf("stripDocxXML = %q, want %q", got, want)
	}

	fallback := stripTags(`<w:p><w:t>Kept</w:t><w:delText>Gone</w:delText><w:instrText> HYPERLINK "x" </w:instrText></w:p> &`)
	if strings.Contains(fallback, "Gone") || strings.Contains(fallback, "HYPERLINK") || !strings.Contains(fallback, "Kept") {
		t.Fatalf("fallback kept hidden text: %q", fallback)
	}
}
