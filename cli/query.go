package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opencite/litgraph/nlq"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a natural-language question against the graph via generated Cypher",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	provider := openLLMProvider()
	if provider == nil {
		return fmt.Errorf("cli: query requires --llm-base-url (or LITGRAPH_LLM_BASE_URL) to be configured")
	}

	classifier := nlq.NewClassifier(provider)
	executor := nlq.NewStoreExecutor(store.Conn)
	generator := nlq.NewGenerator(provider, store.Schema, executor, nlq.DefaultGeneratorConfig())
	engine := nlq.NewEngine(classifier, generator, executor)

	result := engine.Answer(ctx, args[0])
	return printJSON(result)
}
