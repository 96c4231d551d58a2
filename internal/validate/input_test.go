package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/newsverify/internal/apperr"
	"github.com/ppiankov/newsverify/internal/model"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"https://www.bbc.com/news/article", "https://www.bbc.com/news/article", false},
		{"http://example.com", "http://example.com", false},
		{"example.com/story", "https://example.com/story", false},
		{"  reuters.com  ", "https://reuters.com", false},
		{"", "", true},
		{"ftp://example.com/file", "", true},
		{"https://", "", true},
		{"https://" + strings.Repeat("a", MaxURLLength), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if tt.wantErr {
				var ve *apperr.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("Expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateText_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"empty", "", true},
		{"49 chars", strings.Repeat("a", 49), true},
		{"50 chars", strings.Repeat("a", 50), false},
		{"20000 chars", strings.Repeat("a", 20000), false},
		{"20001 chars", strings.Repeat("a", 20001), true},
		{"short after stripping", strings.Repeat("<>", 30) + "short text", true},
		{"whitespace padding does not count", "   " + strings.Repeat("b", 45) + "\n\n\n\n\n\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateText(tt.text)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateText() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequest_UnknownKind(t *testing.T) {
	_, err := Request(model.AnalysisRequest{Kind: "image", RawContent: "x"})
	if apperr.HTTPStatus(err) != 400 {
		t.Errorf("Expected 400 for unknown kind, got %v", err)
	}
}

func TestRequest_NormalizesContent(t *testing.T) {
	req, err := Request(model.AnalysisRequest{Kind: model.KindURL, RawContent: "apnews.com/article/x"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if req.RawContent != "https://apnews.com/article/x" {
		t.Errorf("Unexpected URL: %s", req.RawContent)
	}
}

func TestStruct_APIRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     APIRequest
		wantErr string
	}{
		{"valid url", APIRequest{Type: "url", URL: "https://example.com"}, ""},
		{"valid text", APIRequest{Type: "text", Text: "some text"}, ""},
		{"missing type", APIRequest{}, "type"},
		{"bad type", APIRequest{Type: "video"}, "type"},
		{"url without url", APIRequest{Type: "url"}, "url"},
		{"text without text", APIRequest{Type: "text", URL: "https://example.com"}, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if !strings.Contains(ve.Error(), tt.wantErr) {
				t.Errorf("Expected message mentioning %q, got %q", tt.wantErr, ve.Error())
			}
		})
	}
}

func TestAPIRequest_AnalysisRequest(t *testing.T) {
	req := APIRequest{Type: "text", Text: "hello"}.AnalysisRequest()
	if req.Kind != model.KindText || req.RawContent != "hello" {
		t.Errorf("Unexpected request: %+v", req)
	}
	req = APIRequest{Type: "url", URL: "https://x.org"}.AnalysisRequest()
	if req.Kind != model.KindURL || req.RawContent != "https://x.org" {
		t.Errorf("Unexpected request: %+v", req)
	}
}
