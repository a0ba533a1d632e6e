// Package docx extracts text from Word (.docx) documents.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ normalisers.Normaliser = (*Normaliser)(nil)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".docx"}
}

// Normalise extracts paragraph text, including paragraphs inside tables.
// The title comes from the document properties when set.
func (n *Normaliser) Normalise(name string, content []byte) (normalisers.Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return normalisers.Result{}, fmt.Errorf("%w: %s is not a docx archive: %w", domain.ErrInvalidInput, name, err)
	}

	body, err := readPart(reader, documentPart)
	if err != nil {
		return normalisers.Result{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, name, err)
	}
	text, err := parseDocumentXML(body)
	if err != nil {
		return normalisers.Result{}, fmt.Errorf("%w: %s: parse %s: %w", domain.ErrInvalidInput, name, documentPart, err)
	}

	return normalisers.Result{Title: extractTitle(reader), Text: text}, nil
}

var errMissingPart = errors.New("missing part")

func readPart(reader *zip.Reader, part string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != part {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%w %s", errMissingPart, part)
}

// parseDocumentXML walks the WordprocessingML tokens. Text runs are
// concatenated, each paragraph ends a line, and tabs and breaks are kept.
func parseDocumentXML(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		out    strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				out.WriteByte('\t')
			case "br", "cr":
				out.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}

	lines := strings.Split(out.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, strings.TrimRight(line, " \t"))
		}
	}
	return strings.Join(kept, "\n"), nil
}

type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle reads dc:title from docProps/core.xml, or returns "".
func extractTitle(reader *zip.Reader) string {
	content, err := readPart(reader, corePart)
	if err != nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
