// Package extract turns uploaded files into plain-text excerpts for prompt
// assembly. Extraction never fails a request: unreadable files degrade to an
// empty or placeholder string.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"legal-intake/internal/domain"
)

const (
	// maxFileText caps the excerpt taken from a single file.
	maxFileText = 2000

	mediaTypePDF  = "application/pdf"
	mediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	pdfPlaceholder = "Note: Unable to extract content from this PDF file."
)

// TextExtractor handles plain text and DOCX attachments. Extract never
// returns an error; on failure it returns an empty or diagnostic string so
// one bad file cannot abort an intake.
type TextExtractor struct {
	logger *slog.Logger
}

// New creates a TextExtractor. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *TextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextExtractor{logger: logger}
}

func (e *TextExtractor) Extract(f domain.Attachment) string {
	mediaType := f.MediaType
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}

	switch mediaType {
	case mediaTypePDF:
		// PDF decoding is not supported; surface that to the model rather
		// than silently dropping the attachment.
		return pdfPlaceholder
	case mediaTypeDOCX:
		text, err := docxText(f.Data)
		if err != nil {
			e.logger.Warn("docx extraction failed", "file", f.Name, "err", err)
			return ""
		}
		return truncate(text, maxFileText)
	default:
		if !utf8.Valid(f.Data) {
			e.logger.Warn("attachment is not valid UTF-8 text", "file", f.Name, "media_type", mediaType)
			return ""
		}
		return truncate(string(f.Data), maxFileText)
	}
}

// docxText pulls the raw paragraph text out of a DOCX archive
// (word/document.xml inside the zip container).
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, zf := range zr.File {
		if zf.Name != "word/document.xml" {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return documentXMLText(rc)
	}
	return "", errors.New("word/document.xml not found")
}

// documentXMLText walks the WordprocessingML token stream, collecting text
// runs (w:t) and inserting a newline at each paragraph end (w:p).
func documentXMLText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// truncate shortens s to at most limit runes without splitting one.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
