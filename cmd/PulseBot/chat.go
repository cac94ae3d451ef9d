package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/PulseBot/internal/flow"
)

func NewChatCommand(config Config) *cobra.Command {
	defs := DefinitionFlags{
		QuestionnairePath: config.QuestionnairePath,
		KnowledgePath:     config.KnowledgePath,
	}
	storeFlags := StoreFlags{DSN: config.DatabaseURL}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run one survey interactively on the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := storeFlags.OpenStore()
			if err != nil {
				return err
			}
			defer st.Close()

			engine, err := buildEngine(defs, st)
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), engine, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	defs.BindFlags(cmd.Flags())
	storeFlags.BindFlags(cmd.Flags())
	return cmd
}

// runChat reads one answer per line from in until the survey is done or in is exhausted.
func runChat(ctx context.Context, engine *flow.Engine, in io.Reader, out io.Writer) error {
	start, err := engine.Start(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, engine.Questionnaire().Title)
	fmt.Fprintln(out, start.Intro)
	printTurn(out, start.Message, start.QuickReplies, nil)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		reply, err := engine.HandleMessage(ctx, start.SessionID, scanner.Text())
		if err != nil {
			return err
		}
		printTurn(out, reply.Message, reply.QuickReplies, reply.RAGContext)
		if reply.Progress != nil {
			fmt.Fprintf(out, "  [%d/%d answered, %d%%]\n", reply.Progress.Answered, reply.Progress.Total, reply.Progress.Percent)
		}
		if reply.Done {
			return nil
		}
	}
}

func printTurn(out io.Writer, message string, quickReplies, snippets []string) {
	fmt.Fprintln(out, message)
	for _, snippet := range snippets {
		fmt.Fprintf(out, "  | %s\n", snippet)
	}
	if len(quickReplies) > 0 {
		fmt.Fprintf(out, "  (%s)\n", strings.Join(quickReplies, " / "))
	}
}
