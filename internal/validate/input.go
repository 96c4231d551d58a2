package validate

import (
	"net/url"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/ppiankov/newsverify/internal/apperr"
	"github.com/ppiankov/newsverify/internal/model"
)

// NormalizeURL sanitizes a submitted URL, adds https:// when no scheme was
// given, and checks that the result is an absolute http(s) URL.
func NormalizeURL(raw string) (string, error) {
	if utf8.RuneCountInString(strings.TrimSpace(raw)) > MaxURLLength {
		return "", apperr.Invalid("url", "must be at most %d characters", MaxURLLength)
	}

	s := Sanitize(raw, MaxURLLength)
	if s == "" {
		return "", apperr.Invalid("url", "is required")
	}

	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(s, "://") {
			return "", apperr.Invalid("url", "scheme must be http or https")
		}
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", apperr.Invalid("url", "is not a valid URL")
	}
	if u.Hostname() == "" {
		return "", apperr.Invalid("url", "has no host")
	}

	return u.String(), nil
}

// ValidateText sanitizes free text and enforces the accepted length range
func ValidateText(raw string) (string, error) {
	s := Sanitize(raw, MaxRawTextInput)
	n := utf8.RuneCountInString(s)

	switch {
	case n == 0:
		return "", apperr.Invalid("text", "is required")
	case n < model.MinTextLength:
		return "", apperr.Invalid("text", "must be at least %d characters", model.MinTextLength)
	case n > model.MaxTextLength:
		return "", apperr.Invalid("text", "must be at most %d characters", model.MaxTextLength)
	}
	return s, nil
}

// Request validates an AnalysisRequest and returns a copy whose content is
// normalized for its kind.
func Request(req model.AnalysisRequest) (model.AnalysisRequest, error) {
	switch req.Kind {
	case model.KindURL:
		u, err := NormalizeURL(req.RawContent)
		if err != nil {
			return req, err
		}
		return model.AnalysisRequest{Kind: model.KindURL, RawContent: u}, nil
	case model.KindText:
		s, err := ValidateText(req.RawContent)
		if err != nil {
			return req, err
		}
		return model.AnalysisRequest{Kind: model.KindText, RawContent: s}, nil
	default:
		return req, apperr.Invalid("type", "must be url or text")
	}
}

// APIRequest is the JSON body accepted by the analysis API
type APIRequest struct {
	Type string `json:"type" validate:"required,oneof=url text"`
	URL  string `json:"url,omitempty" validate:"required_if=Type url"`
	Text string `json:"text,omitempty" validate:"required_if=Type text"`
}

// AnalysisRequest converts the body into the pipeline's request type
func (r APIRequest) AnalysisRequest() model.AnalysisRequest {
	if model.Kind(r.Type) == model.KindURL {
		return model.AnalysisRequest{Kind: model.KindURL, RawContent: r.URL}
	}
	return model.AnalysisRequest{Kind: model.Kind(r.Type), RawContent: r.Text}
}

var (
	structOnce sync.Once
	structV    *validator.Validate
	structT    ut.Translator
)

func structValidator() (*validator.Validate, ut.Translator) {
	structOnce.Do(func() {
		enLoc := en.New()
		trans, _ := ut.New(enLoc, enLoc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		structV, structT = v, trans
	})
	return structV, structT
}

// Struct runs tag validation on v and reports the first failure as a
// ValidationError with a translated message.
func Struct(v any) error {
	val, trans := structValidator()
	err := val.Struct(v)
	if err == nil {
		return nil
	}

	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		// Translated messages already name the field
		return &apperr.ValidationError{Msg: verrs[0].Translate(trans)}
	}
	return &apperr.ValidationError{Msg: err.Error()}
}
