package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// NewConfigCmd создаёт группу команд для конфигурации этапов.
func NewConfigCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage stage configuration",
	}

	cmd.AddCommand(
		newConfigShowCmd(clientFn, outputFn),
		newConfigSetCmd(clientFn, outputFn),
		newConfigResetCmd(clientFn, outputFn),
		newConfigGlobalCmd(clientFn, outputFn),
	)

	return cmd
}

func newConfigShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show STAGE",
		Short: "Show stage configuration (schema, defaults, current values)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			cfg, err := client.GetStageConfig(args[0])
			if err != nil {
				return err
			}

			headers := []string{"FIELD", "KIND", "CATEGORY", "DEFAULT", "VALUE"}
			rows := make([][]string, len(cfg.Fields))
			for i, f := range cfg.Fields {
				rows[i] = []string{
					f.Name,
					f.Kind,
					f.Category,
					formatValue(cfg.Defaults[f.Name]),
					formatValue(cfg.Values[f.Name]),
				}
			}

			out.Print(headers, rows, cfg)
			return nil
		},
	}
}

func newConfigSetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "set STAGE FIELD VALUE",
		Short: "Set a configuration field",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			value := parseValue(args[2], raw)

			values, err := client.SetConfigField(args[0], args[1], value)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Field %s.%s set", args[0], args[1]))
			printValues(out, values)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Treat VALUE as a plain string, skip JSON parsing")

	return cmd
}

func newConfigResetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "reset STAGE",
		Short: "Reset stage configuration to current defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			values, err := client.ResetStageConfig(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Stage %s reset to defaults", args[0]))
			printValues(out, values)
			return nil
		},
	}
}

func newConfigGlobalCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "global",
		Short: "Manage the global configuration overlay",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show global configuration values",
			RunE: func(cmd *cobra.Command, args []string) error {
				client := clientFn()
				out := outputFn()

				values, err := client.GetGlobalConfig()
				if err != nil {
					return err
				}

				printValues(out, values)
				return nil
			},
		},
		newConfigGlobalSetCmd(clientFn, outputFn),
		&cobra.Command{
			Use:   "apply",
			Short: "Apply global values to all currently selected stages (one-shot)",
			RunE: func(cmd *cobra.Command, args []string) error {
				client := clientFn()
				out := outputFn()

				if err := client.ApplyGlobalConfig(); err != nil {
					return err
				}

				out.Success("Global configuration applied to selected stages")
				return nil
			},
		},
	)

	return cmd
}

func newConfigGlobalSetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY=VALUE...",
		Short: "Replace global configuration values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			values := make(map[string]any, len(args))
			for _, kv := range args {
				parts := strings.SplitN(kv, "=", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid format %q, expected KEY=VALUE", kv)
				}
				values[parts[0]] = parseValue(parts[1], false)
			}

			result, err := client.SetGlobalConfig(values)
			if err != nil {
				return err
			}

			out.Success("Global configuration replaced")
			printValues(out, result)
			return nil
		},
	}
}

// parseValue интерпретирует значение поля: JSON-литералы (числа, bool,
// null) распознаются, прочее остаётся строкой.
func parseValue(s string, raw bool) any {
	if raw {
		return s
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func printValues(out *Output, values map[string]any) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k, formatValue(values[k])}
	}

	out.Print([]string{"KEY", "VALUE"}, rows, values)
}
