// Package questionnaire loads the ordered interview definition.
//
// The default questionnaire is embedded in the binary; a YAML file with the same
// shape can replace it. Definitions are validated once at load time and are
// immutable afterwards.
package questionnaire

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BTreeMap/PulseBot/internal/models"
)

// EmbeddedSource names the built-in definition in configuration errors.
const EmbeddedSource = "embedded"

//go:embed default.yaml
var defaultQuestionnaire []byte

// Opts holds configuration for Load.
type Opts struct {
	Path string // YAML file; empty selects the embedded definition
}

// Option configures Load.
type Option func(*Opts)

// WithPath loads the questionnaire from a YAML file instead of the embedded default.
func WithPath(path string) Option {
	return func(o *Opts) {
		o.Path = path
	}
}

// Load reads, parses and validates the questionnaire.
// Malformed definitions return a *models.ConfigError.
func Load(opts ...Option) (*models.Questionnaire, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	source := EmbeddedSource
	data := defaultQuestionnaire
	if cfg.Path != "" {
		source = cfg.Path
		b, err := os.ReadFile(cfg.Path)
		if err != nil {
			slog.Error("questionnaire.Load: failed to read file", "error", err, "path", cfg.Path)
			return nil, fmt.Errorf("failed to read questionnaire %s: %w", cfg.Path, err)
		}
		data = b
	}

	q, err := Parse(source, data)
	if err != nil {
		slog.Error("questionnaire.Load: invalid questionnaire", "error", err, "source", source)
		return nil, err
	}
	slog.Debug("questionnaire.Load: loaded", "source", source, "title", q.Title, "questions", q.Len())
	return q, nil
}

// Parse decodes a YAML questionnaire and validates it.
func Parse(source string, data []byte) (*models.Questionnaire, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var q models.Questionnaire
	if err := dec.Decode(&q); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &models.ConfigError{Source: source, Reason: "questionnaire document is empty"}
		}
		return nil, &models.ConfigError{Source: source, Reason: err.Error()}
	}
	if err := q.Validate(source); err != nil {
		return nil, err
	}
	return &q, nil
}

// MustLoad is Load for process start-up, where a bad definition is fatal.
func MustLoad(opts ...Option) *models.Questionnaire {
	q, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("questionnaire: %v", err))
	}
	return q
}
