package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"memora/internal/config"
	"memora/internal/pipeline"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigGetCommand(ctx))
	configCmd.AddCommand(newConfigSetCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective runtime settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			settings, err := pipeline.ResolveSettings(cmd.Context(), st, cfg)
			if err != nil {
				return err
			}
			overrides, err := st.ListConfigs(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Storage:        %s\n", cfg.Paths.StorageDir)
			fmt.Fprintf(out, "Database:       %s\n", cfg.DatabasePath())
			fmt.Fprintf(out, "Whisper:        %s / %s / %s\n", settings.Engine.ModelSize, settings.Engine.Device, settings.Engine.ComputeType)
			fmt.Fprintf(out, "Ollama:         %s (%s)\n", settings.OllamaURL, settings.OllamaModel)
			fmt.Fprintf(out, "Fallback key:   %s\n", yesNo(settings.APIKey != ""))
			fmt.Fprintf(out, "Auto delete:    %s\n", yesNo(settings.AutoDelete))
			fmt.Fprintf(out, "Parallel jobs:  %d\n", cfg.Workflow.MaxParallelJobs)

			if len(overrides) > 0 {
				fmt.Fprintln(out, "\nStored overrides:")
				keys := make([]string, 0, len(overrides))
				for key := range overrides {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					value := overrides[key]
					if key == pipeline.KeyAPIKey {
						value = "(set)"
					}
					fmt.Fprintf(out, "  %s = %s\n", key, value)
				}
			}
			return nil
		},
	}
}

func newConfigGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Read a stored setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			value, ok, err := st.GetConfig(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no stored value for %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting override",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if !knownSettingKey(key) {
				return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(settingKeys(), ", "))
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.SetConfig(cmd.Context(), key, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", key)
			return nil
		},
	}
}

func settingKeys() []string {
	return []string{
		pipeline.KeyWhisperModel,
		pipeline.KeyWhisperDevice,
		pipeline.KeyWhisperCompute,
		pipeline.KeyOllamaURL,
		pipeline.KeyOllamaModel,
		pipeline.KeyAPIKey,
		pipeline.KeyAutoDelete,
	}
}

func knownSettingKey(key string) bool {
	for _, candidate := range settingKeys() {
		if candidate == key {
			return true
		}
	}
	return false
}
