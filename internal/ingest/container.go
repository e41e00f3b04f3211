package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jaytaylor/html2text"
	"github.com/jhillyerd/enmime"

	"github.com/litigo/ediscovery-api/internal/models"
)

// Attachment is one file carried inside a container document.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Envelope is the parsed view of an email container: header metadata, a
// best-effort plain-text body and the attachment list. ParseError carries a
// non-fatal annotation when the container was malformed; whatever metadata
// was extractable is still populated.
type Envelope struct {
	Subject     string
	From        string
	To          string
	Date        string
	BodyText    string
	Attachments []Attachment
	ParseError  string
}

// Metadata flattens the envelope headers into the document metadata map.
func (e *Envelope) Metadata() map[string]string {
	meta := map[string]string{
		"emailSubject": e.Subject,
		"emailFrom":    e.From,
		"emailTo":      e.To,
		"emailDate":    e.Date,
	}
	if e.ParseError != "" {
		meta[models.MetaParseError] = e.ParseError
	}
	return meta
}

// ContainerParser detects and unpacks compound email documents.
type ContainerParser struct{}

// NewContainerParser constructs the parser.
func NewContainerParser() *ContainerParser {
	return &ContainerParser{}
}

// IsContainer reports whether the declared type or filename suffix marks the
// document as an email container.
func (p *ContainerParser) IsContainer(contentType, filename string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if ct == "message/rfc822" {
		return true
	}
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".eml")
}

// Parse reads a raw RFC 2822 message. Malformed input yields an Envelope
// with ParseError set rather than an error: container parse failures are
// annotations, not ingestion failures.
func (p *ContainerParser) Parse(data []byte) *Envelope {
	env := &Envelope{}

	parsed, err := enmime.ReadEnvelope(bytes.NewReader(data))
	if err != nil {
		env.ParseError = fmt.Sprintf("parse email: %v", err)
		return env
	}

	env.Subject = parsed.GetHeader("Subject")
	env.From = parsed.GetHeader("From")
	env.To = parsed.GetHeader("To")
	env.Date = parsed.GetHeader("Date")
	env.BodyText = bodyText(parsed)

	for _, part := range parsed.Attachments {
		if len(part.Content) == 0 {
			continue
		}
		filename := part.FileName
		if filename == "" {
			filename = "attachment"
		}
		contentType := part.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		env.Attachments = append(env.Attachments, Attachment{
			Filename:    filename,
			ContentType: contentType,
			Content:     part.Content,
		})
	}

	return env
}

// bodyText prefers the plain-text part, falling back to stripped HTML.
func bodyText(parsed *enmime.Envelope) string {
	if text := strings.TrimSpace(parsed.Text); text != "" {
		return text
	}
	if parsed.HTML == "" {
		return ""
	}
	stripped, err := html2text.FromString(parsed.HTML, html2text.Options{TextOnly: true})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(stripped)
}
