package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewCatalogCmd создаёт группу команд для работы с каталогом.
func NewCatalogCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the pipeline catalog",
	}

	cmd.AddCommand(
		newCatalogPipelinesCmd(clientFn, outputFn),
		newCatalogStagesCmd(clientFn, outputFn),
		newCatalogRefreshCmd(clientFn, outputFn),
	)

	return cmd
}

func newCatalogPipelinesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "pipelines",
		Short: "List available pipelines",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			catalog, err := client.GetCatalog()
			if err != nil {
				return err
			}

			headers := []string{"NAME", "STAGES"}
			rows := make([][]string, len(catalog.Pipelines))
			for i, p := range catalog.Pipelines {
				rows[i] = []string{p.Name, strconv.Itoa(p.StageCount)}
			}

			out.Print(headers, rows, catalog.Pipelines)
			return nil
		},
	}
}

func newCatalogStagesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List available stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			catalog, err := client.GetCatalog()
			if err != nil {
				return err
			}

			headers := []string{"NAME", "DISPLAY_NAME", "DEPENDENCIES", "LLM"}
			rows := make([][]string, len(catalog.Stages))
			for i, s := range catalog.Stages {
				rows[i] = []string{
					s.Name,
					s.DisplayName,
					strings.Join(s.Dependencies, ","),
					strconv.FormatBool(s.HasLLM),
				}
			}

			out.Print(headers, rows, catalog.Stages)
			return nil
		},
	}
}

func newCatalogRefreshCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload the catalog from the backend (resets selection)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			catalog, err := client.RefreshCatalog()
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Catalog refreshed: %d pipelines, %d stages",
				len(catalog.Pipelines), len(catalog.Stages)))
			return nil
		},
	}
}
