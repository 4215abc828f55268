package model

import "time"

// Report is the complete output of one analysis.
// Result is what callers act on; Evidence and Contributions explain it.
type Report struct {
	ID         string        `json:"id"`
	Mode       Mode          `json:"mode"`
	Subject    string        `json:"subject"` // URL, file name, or a text excerpt
	AnalyzedAt time.Time     `json:"analyzed_at"`
	DurationMS int64         `json:"duration_ms"`
	Result     VerdictResult `json:"result"`

	Evidence      []EvidenceRecord `json:"evidence"`
	Contributions []Contribution   `json:"contributions"`

	Content  *ContentMeta `json:"content,omitempty"`  // Fetched page metadata (URL mode)
	Raw      *RawEvidence `json:"raw,omitempty"`      // Provider outputs, only with --raw / ?raw=true
	Warnings []string     `json:"warnings,omitempty"` // Provider failures, for transparency
}

// Contribution is the transparent scoring data for one evidence record
type Contribution struct {
	Kind     EvidenceKind `json:"kind"`
	Weight   float64      `json:"weight"`
	Strength float64      `json:"strength"`
	Polarity Polarity     `json:"polarity"`
	Value    float64      `json:"value"`
	Formula  string       `json:"formula"`
}

// ContentMeta describes a fetched page
type ContentMeta struct {
	URL         string    `json:"url"`
	FinalURL    string    `json:"final_url,omitempty"`
	StatusCode  int       `json:"status_code,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	TextLength  int       `json:"text_length"`
	FetchedAt   time.Time `json:"fetched_at"`
	Error       string    `json:"error,omitempty"`
}

// SubjectFromText returns a short excerpt suitable as a report subject
func SubjectFromText(text string) string {
	const max = 80
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
