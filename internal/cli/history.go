package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewHistoryCmd создаёт группу команд для истории запусков.
func NewHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect run history",
	}

	cmd.AddCommand(
		newHistoryListCmd(clientFn, outputFn),
		newHistoryShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newHistoryListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var pipeline string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			records, err := client.ListHistory(ListHistoryOpts{
				Pipeline: pipeline,
				Status:   status,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "RUN_ID", "PIPELINE", "STATUS", "STARTED"}
			rows := make([][]string, len(records))
			for i, r := range records {
				rows[i] = []string{r.ID, r.RunID, r.Pipeline, r.Status, r.StartedAt}
			}

			out.Print(headers, rows, records)
			return nil
		},
	}

	cmd.Flags().StringVar(&pipeline, "pipeline", "", "Filter by pipeline")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, running, completed, failed, error, cancelled)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newHistoryShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a history record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			rec, err := client.GetHistoryRecord(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "RUN_ID", "PIPELINE", "STAGES", "STATUS", "ERROR", "STARTED", "FINISHED"},
				[][]string{{
					rec.ID,
					rec.RunID,
					rec.Pipeline,
					strings.Join(rec.Stages, ","),
					rec.Status,
					rec.Error,
					rec.StartedAt,
					rec.FinishedAt,
				}},
				rec,
			)
			return nil
		},
	}
}
