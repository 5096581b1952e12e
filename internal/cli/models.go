package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alnah/go-enhance/internal/format"
	"github.com/alnah/go-enhance/internal/model"
)

// ModelsCmd creates the models command.
func ModelsCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List supported models and their limits",
		Long: `List the model catalog with context size, output size and published
rate limits. The provider's default model is marked with *.`,
		Example: `  enhance models`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(env)
		},
	}
}

// runModels prints the catalog as a table on stdout.
func runModels(env *Env) error {
	tw := tabwriter.NewWriter(env.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tPROVIDER\tCONTEXT\tOUTPUT\tRPM\tTPM")
	for _, m := range model.All() {
		id := m.ID
		if m.Provider.DefaultModel() == m.ID {
			id += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", id, m.Provider,
			format.Tokens(m.MaxTokens), format.Tokens(m.MaxOutputTokens),
			limit(m.RequestsPerMinute), limitTokens(m.TokensPerMinute))
	}
	return tw.Flush()
}

func limit(n int) string {
	if n <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

func limitTokens(n int) string {
	if n <= 0 {
		return "-"
	}
	return format.Tokens(n)
}
