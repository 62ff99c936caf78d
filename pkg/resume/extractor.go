package resume

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	pdf "github.com/ledongthuc/pdf"
)

// Metadata is the best-effort output of content extraction. Empty
// fields mean the extractor could not tell; the ingestion pipeline
// fills them from caller input or fallbacks.
type Metadata struct {
	Name           string
	Major          string
	GraduationYear string
	Companies      []string
	Keywords       []string
}

// Extractor is the content extraction port. Implementations may fail
// independently of storage; ingestion treats failure as non-fatal.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (Metadata, error)
}

// PDFExtractor pulls plain text out of the PDF and applies line-level
// heuristics to guess name, major, graduation year and skills. It never
// guesses companies.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

var (
	reYear      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	reMajorLine = regexp.MustCompile(`(?i)(?:major\s*:|b\.?s\.?\s+in|b\.?a\.?\s+in|bachelor(?:'s)?\s+of(?:\s+\w+)?\s+in|master(?:'s)?\s+of(?:\s+\w+)?\s+in)\s+([^,;|\n]+)`)
	reSkillLine = regexp.MustCompile(`(?i)^skills?\s*[:\-]\s*(.+)$`)
	reSpaces    = regexp.MustCompile(`[ \t\r\f\v]+`)
)

func (e *PDFExtractor) Extract(ctx context.Context, filename string, data []byte) (Metadata, error) {
	text, err := extractText(data)
	if err != nil {
		return Metadata{}, err
	}
	lines := splitLines(text)

	var meta Metadata
	meta.Name = guessName(lines)
	if m := reMajorLine.FindStringSubmatch(text); m != nil {
		meta.Major = strings.TrimSpace(m[1])
	}
	meta.GraduationYear = guessGraduationYear(text)
	for _, ln := range lines {
		if m := reSkillLine.FindStringSubmatch(ln); m != nil {
			for _, kw := range strings.Split(m[1], ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					meta.Keywords = append(meta.Keywords, kw)
				}
			}
			break
		}
	}
	return meta, nil
}

func extractText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err = io.Copy(&buf, rs); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func splitLines(text string) []string {
	var out []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(reSpaces.ReplaceAllString(ln, " "))
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

// guessName takes the first line that looks like a person name: a few
// words, letters only, no digits.
func guessName(lines []string) string {
	for i, ln := range lines {
		if i > 3 {
			break
		}
		words := strings.Fields(ln)
		if len(words) == 0 || len(words) > 5 {
			continue
		}
		ok := true
		for _, w := range words {
			for _, r := range w {
				if !unicode.IsLetter(r) && r != '.' && r != '-' && r != '\'' {
					ok = false
					break
				}
			}
		}
		if ok {
			return ln
		}
	}
	return ""
}

// guessGraduationYear picks the largest plausible 4-digit year in the
// text, up to a few years into the future for expected graduation.
func guessGraduationYear(text string) string {
	limit := time.Now().Year() + 6
	best := 0
	for _, m := range reYear.FindAllString(text, -1) {
		y, err := strconv.Atoi(m)
		if err != nil || y > limit {
			continue
		}
		if y > best {
			best = y
		}
	}
	if best == 0 {
		return ""
	}
	return strconv.Itoa(best)
}
