// Package resume extracts candidate contact details from uploaded resumes.
package resume

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"code.sajari.com/docconv"

	"github.com/khrees2412/mockly/internal/session"
	"github.com/khrees2412/mockly/pkg/models"
)

// Supported resume formats
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// MaxSize is the largest accepted resume
const MaxSize = 10 << 20

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\(?\d[\d\s().\-]{8,}\d`)
)

// Parser converts resumes to text with docconv
type Parser struct{}

// NewParser creates a Parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts the profile fields from a PDF or DOCX resume. Unsupported types are a validation
// error; unreadable documents are a parse error.
func (p *Parser) Parse(ctx context.Context, data []byte, mimeHint string) (models.CandidateProfile, error) {
	if len(data) > MaxSize {
		return models.CandidateProfile{}, &session.ValidationError{Field: "file", Reason: "resume exceeds 10MB"}
	}
	mimeType, err := DetectMime(data, mimeHint)
	if err != nil {
		return models.CandidateProfile{}, err
	}

	res, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		return models.CandidateProfile{}, fmt.Errorf("%w: %v", session.ErrParse, err)
	}
	if err := ctx.Err(); err != nil {
		return models.CandidateProfile{}, err
	}

	text := strings.TrimSpace(res.Body)
	if text == "" {
		return models.CandidateProfile{}, fmt.Errorf("%w: no text found in resume", session.ErrParse)
	}

	profile := ExtractProfile(text)
	profile.ResumeText = text
	return profile, nil
}

// DetectMime resolves the resume type from the declared type, falling back to content sniffing
func DetectMime(data []byte, hint string) (string, error) {
	declared := ""
	if hint != "" {
		if mt, _, err := mime.ParseMediaType(hint); err == nil {
			declared = mt
		}
	}

	switch declared {
	case MimePDF, MimeDOCX:
		return declared, nil
	case "", "application/octet-stream":
		sniffed := http.DetectContentType(data)
		if sniffed == MimePDF {
			return MimePDF, nil
		}
		// docx is a zip container
		if sniffed == "application/zip" && bytes.Contains(data, []byte("word/")) {
			return MimeDOCX, nil
		}
	}
	return "", &session.ValidationError{Field: "file", Reason: "only PDF and DOCX resumes are supported"}
}

// ExtractProfile finds the name, email and phone in resume text and records which are missing
func ExtractProfile(text string) models.CandidateProfile {
	p := models.CandidateProfile{
		Email: emailPattern.FindString(text),
		Name:  guessName(text),
	}
	for _, candidate := range phonePattern.FindAllString(text, -1) {
		if digits := countDigits(candidate); digits >= 10 && digits <= 15 {
			p.Phone = strings.TrimSpace(candidate)
			break
		}
	}
	p.MissingFields = session.MissingFields(p)
	return p
}

// guessName takes the first short line made only of letters, the usual resume header
func guessName(text string) string {
	for i, line := range strings.Split(text, "\n") {
		if i >= 8 {
			break
		}
		line = strings.TrimSpace(line)
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		if isNameLine(line) {
			return strings.Join(words, " ")
		}
	}
	return ""
}

func isNameLine(line string) bool {
	for _, r := range line {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '\'' && r != '.' {
			return false
		}
	}
	return true
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
