package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewSelectionCmd создаёт группу команд для управления выбором этапов.
func NewSelectionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Manage the pipeline and stage selection",
	}

	cmd.AddCommand(
		newSelectShowCmd(clientFn, outputFn),
		newSelectPipelineCmd(clientFn, outputFn),
		newSelectToggleCmd(clientFn, outputFn),
		newSelectStagesCmd(clientFn, outputFn),
		newSelectPlanCmd(clientFn, outputFn),
		newSelectClearCmd(clientFn, outputFn),
	)

	return cmd
}

func newSelectShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sel, err := client.GetSelection()
			if err != nil {
				return err
			}

			printSelection(out, sel)
			return nil
		},
	}
}

func newSelectPipelineCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline NAME",
		Short: "Select a pipeline (resets stage selection)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sel, err := client.SelectPipeline(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Pipeline selected: %s", args[0]))
			printSelection(out, sel)
			return nil
		},
	}
}

func newSelectToggleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle STAGE",
		Short: "Toggle a stage (selecting pulls in its dependencies)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sel, err := client.ToggleStage(args[0])
			if err != nil {
				return err
			}

			printSelection(out, sel)
			return nil
		},
	}
}

func newSelectStagesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stages STAGE...",
		Short: "Replace the stage selection wholesale",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sel, err := client.SetStages(args)
			if err != nil {
				return err
			}

			printSelection(out, sel)
			return nil
		},
	}
}

func newSelectPlanCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Preview the execution order of the selected stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			plan, err := client.GetSelectionPlan()
			if err != nil {
				return err
			}

			rows := make([][]string, len(plan.Stages))
			for i, stage := range plan.Stages {
				rows[i] = []string{fmt.Sprintf("%d", i+1), stage}
			}

			out.Print([]string{"#", "STAGE"}, rows, plan)
			return nil
		},
	}
}

func newSelectClearCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the pipeline and stage selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.ClearSelection(); err != nil {
				return err
			}

			out.Success("Selection cleared")
			return nil
		},
	}
}

func printSelection(out *Output, sel *SelectionResponse) {
	out.Print(
		[]string{"PIPELINE", "STAGES", "COUNT"},
		[][]string{{sel.Pipeline, strings.Join(sel.Stages, ","), fmt.Sprintf("%d", sel.Count)}},
		sel,
	)
}
