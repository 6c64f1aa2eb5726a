package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const docxBodyPart = "word/document.xml"

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// Deleted revisions and field instructions carry text that is not on the page.
var hiddenRunPattern = regexp.MustCompile(`(?s)<w:(delText|instrText)\b[^>]*>.*?</w:(delText|instrText)>`)

func extractDOCX(data []byte, res *Result) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty docx data", ErrNoReadableText)
	}

	raw, err := readDocxBody(data)
	if err != nil {
		// Packages without relationship parts are rejected by the docx reader; the body can still be read directly.
		res.Warnings = append(res.Warnings, fmt.Sprintf("docx reader: %v", err))
		raw, err = readZipBody(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoReadableText, err)
		}
	}

	text, ok := stripDocxXML(raw)
	if !ok {
		res.Warnings = append(res.Warnings, "document.xml is not well-formed, text recovered by tag stripping")
	}
	return text, nil
}

func readDocxBody(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()
	return doc.Editable().GetContent(), nil
}

func readZipBody(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") != docxBodyPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		body, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}
	return "", errors.New("document.xml file not found")
}

// stripDocxXML walks the WordprocessingML tokens, keeping only run text
// (w:t) and turning paragraph ends, breaks and tabs into whitespace. Deleted
// revisions and field codes are dropped. The boolean is false when the XML
// could not be decoded and the regexp fallback was used.
func stripDocxXML(raw string) (string, bool) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	// skip counts open deletions; tab stops in paragraph properties are not tabs.
	inText, skip, tabStops := 0, 0, 0
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stripTags(raw), false
		}
		switch t := tok.(type) {
		case xml.CharData:
			if inText > 0 && skip == 0 {
				buf.Write(t)
			}
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText++
			case "del", "moveFrom":
				skip++
			case "tabs":
				tabStops++
			case "tab":
				if skip == 0 && tabStops == 0 {
					buf.WriteString("\t")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText--
			case "del", "moveFrom":
				skip--
			case "tabs":
				tabStops--
			case "p", "br", "cr":
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String()), true
}

func stripTags(raw string) string {
	raw = hiddenRunPattern.ReplaceAllString(raw, "")
	raw = strings.ReplaceAll(raw, "</w:p>", "\n")
	return strings.TrimSpace(xmlTagPattern.ReplaceAllString(raw, ""))
}
