package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-enhance/internal/config"
	"github.com/alnah/go-enhance/internal/model"
)

// configEnvFallbacks maps keys to the environment variables read when the
// file has no value.
var configEnvFallbacks = map[string]string{
	config.KeyOutputDir: config.EnvOutputDir,
	config.KeyProvider:  config.EnvProvider,
	config.KeyModel:     config.EnvModel,
}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/go-enhance/config.
Some settings can also be provided via environment variables.

Supported settings:
  output-dir    Default directory for output files (env: ENHANCE_OUTPUT_DIR)
  provider      Default provider: openai, deepseek, gemini (env: ENHANCE_PROVIDER)
  model         Default model ID, see 'enhance models' (env: ENHANCE_MODEL)
  chunk-size    Maximum segment size in bytes
  overlap       Bytes repeated between segments`,
		Example: `  enhance config set output-dir ~/Documents/enhanced
  enhance config set provider gemini
  enhance config get model
  enhance config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

The output directory is created if it doesn't exist. Provider and model
names are checked against the catalog.`,
		Example: `  enhance config set output-dir ~/Documents/enhanced
  enhance config set chunk-size 8000`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  enhance config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows values from the config file and environment variable fallbacks.`,
		Example: `  enhance config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if err := config.Validate(key, value); err != nil {
		return err
	}

	switch key {
	case config.KeyOutputDir:
		expanded := config.ExpandPath(value)
		if err := config.EnsureOutputDir(expanded); err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
		value = expanded
	case config.KeyProvider:
		p, err := model.ParseProvider(value)
		if err != nil {
			return err
		}
		value = p.String()
	case config.KeyModel:
		m, err := model.Lookup(value)
		if err != nil {
			return err
		}
		value = m.ID
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if !slices.Contains(config.Keys(), key) {
		return fmt.Errorf("%q (valid keys: %s): %w", key, strings.Join(config.Keys(), ", "), config.ErrUnknownKey)
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value == "" {
		if name, ok := configEnvFallbacks[key]; ok {
			value = env.Getenv(name)
		}
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	for key, name := range configEnvFallbacks {
		if _, ok := data[key]; ok {
			continue
		}
		if v := env.Getenv(name); v != "" {
			data[key] = v + " (from env)"
		}
	}

	if len(data) == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys() {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	for _, key := range config.Keys() {
		if v, ok := data[key]; ok {
			fmt.Fprintf(env.Stdout, "%s=%s\n", key, v)
		}
	}
	return nil
}
