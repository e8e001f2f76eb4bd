package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"duolog/model"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models both agents can be assigned",
	Long: `List every resolvable model: the hosted catalog plus whatever the
local Ollama runtime is currently serving.`,
	RunE: listModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func listModels(cmd *cobra.Command, args []string) error {
	d := buildDeps()

	local, err := d.ollama.ListModels(cmd.Context())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: local runtime unreachable: %v\n", err)
	} else {
		d.registry.SetLocalModels(local)
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header([]string{"Model", "Provider", "Model ID"})

	for _, name := range d.registry.Names() {
		ref, ok := d.registry.Resolve(name)
		if !ok {
			continue
		}
		kind := ref.Provider.String()
		if ref.Provider == model.ProviderOllama {
			kind += " (local)"
		}
		_ = table.Append([]string{ref.Display, kind, ref.ModelID})
	}

	return table.Render()
}
