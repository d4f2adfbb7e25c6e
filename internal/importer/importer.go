// Package importer turns uploaded files into CV documents. PDF and
// DOCX uploads are reduced to plain text for model-side extraction;
// JSON uploads are decoded directly into a Document.
package importer

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"cvarchitect/internal/cv"
)

// ErrUnsupported is returned for file types the importer cannot read.
var ErrUnsupported = errors.New("importer: unsupported file format (pdf, docx, txt or json)")

// File is one uploaded file.
type File struct {
	Name string
	Data []byte
}

// ExtractText extracts plain text from one file based on its extension.
func ExtractText(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDocx(data)
	case ".txt", ".md":
		return normalizeWhitespace(string(data)), nil
	default:
		return "", ErrUnsupported
	}
}

// CombineText extracts and concatenates the text of several files, each
// section tagged with its filename so the model can tell them apart.
func CombineText(files []File) (string, error) {
	if len(files) == 0 {
		return "", errors.New("importer: no files")
	}
	var b strings.Builder
	var any bool
	for _, f := range files {
		text, err := ExtractText(f.Name, f.Data)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", f.Name, err)
		}
		if text == "" {
			continue
		}
		any = true
		fmt.Fprintf(&b, "\n--- FILE: %s ---\n%s\n", f.Name, text)
	}
	if !any {
		return "", errors.New("importer: files contained no extractable text")
	}
	return strings.TrimSpace(b.String()), nil
}

// DocumentFromJSON decodes a previously exported Document. Missing
// entry IDs are filled in so the result merges cleanly.
func DocumentFromJSON(data []byte) (cv.Document, error) {
	var doc cv.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return cv.Document{}, fmt.Errorf("decode document: %w", err)
	}
	cv.EnsureIDs(&doc)
	return doc, nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err = io.Copy(&buf, rs); err != nil {
		return "", err
	}
	return normalizeWhitespace(buf.String()), nil
}

func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", err
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", err
			}
			break
		}
	}
	if len(docXML) == 0 {
		return "", errors.New("importer: no word/document.xml in docx")
	}
	xml := string(docXML)
	xml = strings.ReplaceAll(xml, "</w:p>", "\n")
	xml = strings.ReplaceAll(xml, "<w:tab/>", "\t")
	return normalizeWhitespace(tagPattern.ReplaceAllString(xml, " ")), nil
}

var (
	tagPattern  = regexp.MustCompile(`<[^>]+>`)
	spaceRuns   = regexp.MustCompile(`[ \t\r\f\v]+`)
	newlineRuns = regexp.MustCompile(`\n+`)
)

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = spaceRuns.ReplaceAllString(s, " ")
	s = newlineRuns.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
