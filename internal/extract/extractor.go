package extract

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ErrUndecodable is returned when no text can be recovered from the
// document bytes.
var ErrUndecodable = errors.New("document could not be decoded to text")

var whitespaceRun = regexp.MustCompile(`\s+`)

// Result is the recovered text plus basic size metrics.
type Result struct {
	Text  string
	Pages int
}

// FromBytes decodes uploaded rulebook bytes to plain text. HTML documents
// are stripped of markup and chrome; anything else is treated as plain text
// and must be valid UTF-8.
func FromBytes(filename string, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrUndecodable)
	}

	if isHTML(filename, data) {
		return fromHTML(data)
	}

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: not valid UTF-8 text", ErrUndecodable)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("%w: no textual content", ErrUndecodable)
	}

	return &Result{Text: text, Pages: pageEstimate(text)}, nil
}

func fromHTML(data []byte) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}

	text = whitespaceRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: no textual content in HTML", ErrUndecodable)
	}

	return &Result{Text: text, Pages: pageEstimate(text)}, nil
}

func isHTML(filename string, data []byte) bool {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
		return true
	}

	head := strings.ToLower(string(data[:min(len(data), 256)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

// pageEstimate approximates a page count for size metrics on formats that
// have no native pagination.
func pageEstimate(text string) int {
	const charsPerPage = 3000
	pages := (len(text) + charsPerPage - 1) / charsPerPage
	if pages == 0 {
		pages = 1
	}
	return pages
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
