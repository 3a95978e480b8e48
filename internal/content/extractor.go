package content

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/microcosm-cc/bluemonday"
)

var (
	// ErrEmptyContent indicates the submission holds no gradable text.
	ErrEmptyContent = errors.New("submission content is empty")
	// ErrUnsupportedType indicates a file format text cannot be read from.
	ErrUnsupportedType = errors.New("unsupported submission file type")
)

// Extractor turns downloaded submission files into plain text.
type Extractor struct {
	policy *bluemonday.Policy
}

// NewExtractor constructs an extractor that strips all markup from HTML files.
func NewExtractor() *Extractor {
	return &Extractor{policy: bluemonday.StrictPolicy()}
}

// Extract sniffs the file type and returns its trimmed text.
func (e *Extractor) Extract(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmptyContent
	}

	detected := mimetype.Detect(data)

	var (
		text string
		err  error
	)
	switch {
	case detected.Is("application/pdf"):
		text, err = extractPDF(data)
	case detected.Is("text/html"):
		text = e.StripMarkup(string(data))
	case isText(detected):
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, detected.String())
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

// StripMarkup removes every tag and decodes entities.
func (e *Extractor) StripMarkup(input string) string {
	return strings.TrimSpace(html.UnescapeString(e.policy.Sanitize(input)))
}

func isText(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}
