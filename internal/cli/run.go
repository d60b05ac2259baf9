package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

// Терминальные статусы запуска (зеркало domain.RunStatus.IsTerminal).
var terminalStatuses = map[string]bool{
	"completed": true,
	"failed":    true,
	"error":     true,
	"cancelled": true,
}

// NewRunCmd создаёт группу команд для управления сессией выполнения.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Validate, execute and watch pipeline runs",
	}

	cmd.AddCommand(
		newRunValidateCmd(clientFn, outputFn),
		newRunStartCmd(clientFn, outputFn),
		newRunStatusCmd(clientFn, outputFn),
		newRunWatchCmd(clientFn, outputFn),
		newRunCancelCmd(clientFn, outputFn),
		newRunResetCmd(clientFn, outputFn),
		newRunErrorsCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunValidateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the current selection and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			session, err := client.Validate()
			if err != nil {
				return err
			}

			vr := session.ValidationResult
			if vr == nil {
				return fmt.Errorf("no validation result in session")
			}

			if vr.Valid {
				out.Success("Configuration is valid")
			} else {
				out.Error("Configuration is invalid")
			}

			for _, w := range vr.Warnings {
				out.Success("Warning: " + w)
			}

			if len(vr.Errors) > 0 {
				stages := make([]string, 0, len(vr.Errors))
				for stage := range vr.Errors {
					stages = append(stages, stage)
				}
				sort.Strings(stages)

				var rows [][]string
				for _, stage := range stages {
					for _, msg := range vr.Errors[stage] {
						rows = append(rows, []string{stage, msg})
					}
				}
				out.Print([]string{"STAGE", "ERROR"}, rows, vr)
				return nil
			}

			out.Print([]string{"VALID"}, [][]string{{"true"}}, vr)
			return nil
		},
	}
}

func newRunStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Execute the selected pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			session, err := client.Execute()
			if err != nil {
				return err
			}

			if session.RunID == "" {
				// Backend отклонил запуск: причина в логе ошибок сессии
				out.Error("Execution rejected")
				printSessionErrors(out, session)
				return nil
			}

			out.Success(fmt.Sprintf("Run started: %s", session.RunID))

			if watch {
				return watchSession(client, out)
			}

			printSession(out, session)
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Poll the session until the run reaches a terminal status")

	return cmd
}

func newRunStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current run session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			session, err := client.GetSession()
			if err != nil {
				return err
			}

			printSession(out, session)
			return nil
		},
	}
}

func newRunWatchCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the session until the run reaches a terminal status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchSession(clientFn(), outputFn())
		},
	}
}

func newRunCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Request cancellation of the active run",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			session, err := client.Cancel()
			if err != nil {
				return err
			}

			if session.RunID == "" {
				out.Success("No active run, nothing to cancel")
				return nil
			}

			out.Success(fmt.Sprintf("Cancellation requested for run %s", session.RunID))
			return nil
		},
	}
}

func newRunResetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the run session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if _, err := client.ResetSession(); err != nil {
				return err
			}

			out.Success("Session reset")
			return nil
		},
	}
}

func newRunErrorsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Show accumulated session errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if clear {
				if err := client.ClearSessionErrors(); err != nil {
					return err
				}
				out.Success("Session errors cleared")
				return nil
			}

			session, err := client.GetSession()
			if err != nil {
				return err
			}

			printSessionErrors(out, session)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Clear the error log instead of showing it")

	return cmd
}

// watchSession опрашивает сессию, пока запуск не достигнет
// терминального статуса. Сам CLI backend не опрашивает: панель
// ведёт собственный poll-цикл, CLI лишь читает её сессию.
func watchSession(client *Client, out *Output) error {
	for {
		session, err := client.GetSession()
		if err != nil {
			return err
		}

		if session.RunID == "" {
			out.Success("No active run")
			return nil
		}

		status := session.Status
		if status != nil {
			out.Success(fmt.Sprintf("[%s] %s %.0f%% (%d/%d) elapsed %.0fs",
				status.Status,
				status.CurrentStage,
				status.Progress.Percent,
				status.Progress.CompletedStages,
				status.Progress.TotalStages,
				status.ElapsedSeconds,
			))

			if terminalStatuses[status.Status] {
				printSession(out, session)
				return nil
			}
		}

		time.Sleep(2 * time.Second)
	}
}

func printSession(out *Output, session *SessionResponse) {
	status, currentStage, progress := "", "", ""
	if session.Status != nil {
		status = session.Status.Status
		currentStage = session.Status.CurrentStage
		progress = fmt.Sprintf("%.0f%%", session.Status.Progress.Percent)
	}

	out.Print(
		[]string{"RUN_ID", "STATUS", "STAGE", "PROGRESS", "ERRORS"},
		[][]string{{session.RunID, status, currentStage, progress, fmt.Sprintf("%d", len(session.Errors))}},
		session,
	)
}

func printSessionErrors(out *Output, session *SessionResponse) {
	if len(session.Errors) == 0 {
		out.Success("No session errors")
		return
	}

	rows := make([][]string, len(session.Errors))
	for i, msg := range session.Errors {
		rows[i] = []string{fmt.Sprintf("%d", i+1), msg}
	}
	out.Print([]string{"#", "ERROR"}, rows, session.Errors)
}
