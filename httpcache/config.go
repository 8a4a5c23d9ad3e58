package httpcache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Wildcard is the pattern matching everything.
const Wildcard = "*"

// DefaultTTL is one week, in seconds.
const DefaultTTL = 604800

// Config holds the middleware options. List options accept either a single
// JSON value or an array.
type Config struct {
	// TTL is the lifetime of a stored response, in seconds.
	TTL int `json:"ttl"`
	// Methods eligible for caching.
	Methods StringList `json:"methods"`
	// StatusCodes eligible for storage.
	StatusCodes IntList `json:"status_codes"`
	// IncludedPath and ExcludedPath are regular expressions (or "*") matched
	// against the request path.
	IncludedPath StringList `json:"included_path"`
	ExcludedPath StringList `json:"excluded_path"`
	// IncludedQuery and ExcludedQuery are matched against the query string
	// left after ignored parameters are removed.
	IncludedQuery StringList `json:"included_query"`
	ExcludedQuery StringList `json:"excluded_query"`
	// IgnoredQuery names parameters (or "*") removed before matching and
	// key computation.
	IgnoredQuery StringList `json:"ignored_query"`
}

// DefaultConfig caches GET and HEAD 200 responses on every path for a week.
func DefaultConfig() Config {
	return Config{
		TTL:          DefaultTTL,
		Methods:      StringList{http.MethodGet, http.MethodHead},
		StatusCodes:  IntList{http.StatusOK},
		IncludedPath: StringList{Wildcard},
	}
}

// ParseConfig decodes JSON options over the defaults and validates them.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("httpcache: decode config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var knownMethods = []any{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// Validate checks the TTL, methods, status codes and patterns.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TTL, validation.Required, validation.Min(1)),
		validation.Field(&c.Methods, validation.Each(validation.In(knownMethods...))),
		validation.Field(&c.StatusCodes, validation.Each(validation.Min(100), validation.Max(599))),
		validation.Field(&c.IncludedPath, validation.Each(validation.By(validPattern))),
		validation.Field(&c.ExcludedPath, validation.Each(validation.By(validPattern))),
		validation.Field(&c.IncludedQuery, validation.Each(validation.By(validPattern))),
		validation.Field(&c.ExcludedQuery, validation.Each(validation.By(validPattern))),
		validation.Field(&c.IgnoredQuery, validation.Each(validation.Required)),
	)
}

func validPattern(value any) error {
	s, _ := value.(string)
	if s == Wildcard {
		return nil
	}
	if _, err := regexp.Compile(s); err != nil {
		return fmt.Errorf("invalid pattern %q", s)
	}
	return nil
}

// StringList decodes from a JSON string or array of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}

	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = StringList{one}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*l = StringList(many)
	return nil
}

// IntList decodes from a JSON number or array of numbers.
type IntList []int

func (l *IntList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}

	var one int
	if err := json.Unmarshal(data, &one); err == nil {
		*l = IntList{one}
		return nil
	}

	var many []int
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected number or list of numbers: %w", err)
	}
	*l = IntList(many)
	return nil
}
