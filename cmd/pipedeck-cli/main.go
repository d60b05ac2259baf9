// Pipedeck CLI — инструмент командной строки для управления панелью
// пайплайнов через её HTTP API.
//
// Использование:
//
//	pipedeck [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	catalog   Каталог пайплайнов и этапов
//	select    Выбор пайплайна и этапов
//	config    Конфигурация этапов
//	run       Валидация, запуск и наблюдение
//	history   История запусков
//	schedule  Управление расписаниями
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Pipedeck/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "pipedeck",
		Short:         "Pipedeck CLI — pipeline control panel tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "Panel API URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewCatalogCmd(clientFn, outputFn),
		cli.NewSelectionCmd(clientFn, outputFn),
		cli.NewConfigCmd(clientFn, outputFn),
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewHistoryCmd(clientFn, outputFn),
		cli.NewScheduleCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
