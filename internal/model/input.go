package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidInput is returned before any evidence is gathered
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderUnavailable marks a provider that failed, panicked or ran out of time
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// MinTextLength is the shortest text accepted for analysis
const MinTextLength = 10

// AnalysisInput is one request's subject. Exactly one of Text, URL or Image is set.
type AnalysisInput struct {
	Kind    Mode   `json:"kind" validate:"required,oneof=text url image"`
	Text    string `json:"text,omitempty"`
	URL     string `json:"url,omitempty" validate:"omitempty,url"`
	Image   []byte `json:"-"`
	Caption string `json:"caption,omitempty"`
}

// TextInput builds a text-mode input
func TextInput(text string) AnalysisInput {
	return AnalysisInput{Kind: ModeText, Text: text}
}

// URLInput builds a URL-mode input
func URLInput(rawURL string) AnalysisInput {
	return AnalysisInput{Kind: ModeURL, URL: rawURL}
}

// ImageInput builds an image-mode input with an optional caption
func ImageInput(data []byte, caption string) AnalysisInput {
	return AnalysisInput{Kind: ModeImage, Image: data, Caption: caption}
}

var inputValidator = newInputValidator()

func newInputValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(exactlyOneVariant, AnalysisInput{})
	return v
}

func exactlyOneVariant(sl validator.StructLevel) {
	in := sl.Current().Interface().(AnalysisInput)

	set := 0
	if in.Text != "" {
		set++
	}
	if in.URL != "" {
		set++
	}
	if len(in.Image) > 0 {
		set++
	}
	if set != 1 {
		sl.ReportError(in.Kind, "Kind", "Kind", "exactly_one", "")
	}
}

// Validate checks the input shape and the mode-specific rules
func (in AnalysisInput) Validate() error {
	if err := inputValidator.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %q", ErrInvalidInput, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	switch in.Kind {
	case ModeText:
		if utf8.RuneCountInString(strings.TrimSpace(in.Text)) < MinTextLength {
			return fmt.Errorf("%w: text must be at least %d characters", ErrInvalidInput, MinTextLength)
		}
	case ModeURL:
		u, err := url.Parse(in.URL)
		if err != nil {
			return fmt.Errorf("%w: parse url: %v", ErrInvalidInput, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%w: url must start with http:// or https://", ErrInvalidInput)
		}
		if u.Hostname() == "" {
			return fmt.Errorf("%w: url has no host", ErrInvalidInput)
		}
		if in.Text != "" || len(in.Image) > 0 {
			return fmt.Errorf("%w: url input carries another variant", ErrInvalidInput)
		}
	case ModeImage:
		if len(in.Image) == 0 {
			return fmt.Errorf("%w: image is empty", ErrInvalidInput)
		}
	}

	if in.Kind == ModeText && (in.URL != "" || len(in.Image) > 0) {
		return fmt.Errorf("%w: text input carries another variant", ErrInvalidInput)
	}

	return nil
}
