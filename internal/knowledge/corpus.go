// Package knowledge holds the tagged snippet corpus and the keyword retrieval scorer.
package knowledge

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BTreeMap/PulseBot/internal/models"
)

// EmbeddedSource names the built-in corpus in configuration errors.
const EmbeddedSource = "embedded"

//go:embed corpus.yaml
var defaultCorpus []byte

// MaxResults bounds the number of snippets Retrieve returns.
const MaxResults = 2

// Corpus is an immutable, ordered set of knowledge documents.
// Definition order breaks score ties during retrieval.
type Corpus struct {
	docs []entry
}

type entry struct {
	doc  models.KnowledgeDoc
	tags map[string]struct{}
}

type corpusFile struct {
	Docs []models.KnowledgeDoc `yaml:"docs"`
}

// Opts holds configuration for Load.
type Opts struct {
	Path string
}

// Option configures Load.
type Option func(*Opts)

// WithPath loads the corpus from a YAML file instead of the embedded default.
func WithPath(path string) Option {
	return func(o *Opts) {
		o.Path = path
	}
}

// Load reads and validates the corpus. Malformed documents return a *models.ConfigError.
func Load(opts ...Option) (*Corpus, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	source := EmbeddedSource
	data := defaultCorpus
	if cfg.Path != "" {
		source = cfg.Path
		b, err := os.ReadFile(cfg.Path)
		if err != nil {
			slog.Error("knowledge.Load: failed to read file", "error", err, "path", cfg.Path)
			return nil, fmt.Errorf("failed to read knowledge corpus %s: %w", cfg.Path, err)
		}
		data = b
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f corpusFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("knowledge.Load: failed to parse corpus", "error", err, "source", source)
		return nil, &models.ConfigError{Source: source, Reason: err.Error()}
	}

	c, err := New(source, f.Docs)
	if err != nil {
		slog.Error("knowledge.Load: invalid corpus", "error", err, "source", source)
		return nil, err
	}
	slog.Debug("knowledge.Load: loaded", "source", source, "docs", c.Len())
	return c, nil
}

// New validates docs and builds a corpus. Tags are lower-cased and de-duplicated.
// An empty doc list is allowed and yields a corpus that never matches.
func New(source string, docs []models.KnowledgeDoc) (*Corpus, error) {
	c := &Corpus{docs: make([]entry, 0, len(docs))}
	seen := make(map[string]bool, len(docs))
	for i, d := range docs {
		if strings.TrimSpace(d.ID) == "" {
			return nil, &models.ConfigError{Source: source, Field: fmt.Sprintf("docs[%d].id", i), Reason: "document id cannot be empty"}
		}
		field := "docs[" + d.ID + "]"
		if seen[d.ID] {
			return nil, &models.ConfigError{Source: source, Field: field, Reason: "duplicate document id"}
		}
		seen[d.ID] = true
		if strings.TrimSpace(d.Text) == "" {
			return nil, &models.ConfigError{Source: source, Field: field + ".text", Reason: "document text cannot be empty"}
		}

		tags := make(map[string]struct{}, len(d.Tags))
		normalized := make([]string, 0, len(d.Tags))
		for _, tag := range d.Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			if _, dup := tags[tag]; dup {
				continue
			}
			tags[tag] = struct{}{}
			normalized = append(normalized, tag)
		}
		if len(tags) == 0 {
			return nil, &models.ConfigError{Source: source, Field: field + ".tags", Reason: "document needs at least one tag"}
		}

		d.Tags = normalized
		c.docs = append(c.docs, entry{doc: d, tags: tags})
	}
	return c, nil
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.docs)
}

// Docs returns a copy of the documents in definition order.
func (c *Corpus) Docs() []models.KnowledgeDoc {
	out := make([]models.KnowledgeDoc, len(c.docs))
	for i, e := range c.docs {
		out[i] = e.doc
	}
	return out
}
