package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/BTreeMap/PulseBot/internal/flow"
	"github.com/BTreeMap/PulseBot/internal/knowledge"
	"github.com/BTreeMap/PulseBot/internal/questionnaire"
	"github.com/BTreeMap/PulseBot/internal/session"
	"github.com/BTreeMap/PulseBot/internal/store"
)

// DefinitionFlags selects the questionnaire and corpus files. Empty paths use
// the definitions embedded in the binary.
type DefinitionFlags struct {
	QuestionnairePath string
	KnowledgePath     string
}

func (f *DefinitionFlags) BindFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.QuestionnairePath, "questionnaire", f.QuestionnairePath, "questionnaire YAML file (overrides $PULSEBOT_QUESTIONNAIRE; default embedded)")
	flagSet.StringVar(&f.KnowledgePath, "knowledge", f.KnowledgePath, "knowledge corpus YAML file (overrides $PULSEBOT_KNOWLEDGE; default embedded)")
}

// StoreFlags selects the result archive backend.
type StoreFlags struct {
	DSN string
}

func (f *StoreFlags) BindFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.DSN, "db-dsn", f.DSN, "result archive DSN: PostgreSQL URL, SQLite file path, or empty for in-memory (overrides $DATABASE_URL)")
}

// OpenStore opens the configured archive backend.
func (f *StoreFlags) OpenStore() (store.Store, error) {
	st, err := store.Open(f.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open result archive: %w", err)
	}
	return st, nil
}

// buildEngine loads the definitions and creates an engine that archives into st.
func buildEngine(defs DefinitionFlags, st store.Store, opts ...flow.Option) (*flow.Engine, error) {
	var qOpts []questionnaire.Option
	if defs.QuestionnairePath != "" {
		qOpts = append(qOpts, questionnaire.WithPath(defs.QuestionnairePath))
	}
	q, err := questionnaire.Load(qOpts...)
	if err != nil {
		return nil, err
	}

	var kOpts []knowledge.Option
	if defs.KnowledgePath != "" {
		kOpts = append(kOpts, knowledge.WithPath(defs.KnowledgePath))
	}
	corpus, err := knowledge.Load(kOpts...)
	if err != nil {
		return nil, err
	}

	if st != nil {
		opts = append([]flow.Option{flow.WithResultSaver(st)}, opts...)
	}
	slog.Debug("buildEngine: definitions loaded", "questions", q.Len(), "docs", corpus.Len())
	return flow.NewEngine(q, corpus, session.NewRegistry(), opts...), nil
}
