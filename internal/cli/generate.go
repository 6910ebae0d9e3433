package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/forgekit/apiforge/internal/scaffold"
)

// GenerateConfig captures all inputs that influence the generate command
// after merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Dir        string // project directory
	File       string // apiforge.toml path, relative to Dir when not absolute
	Out        string // OpenAPI document output path
	Stdout     bool
	DryRun     bool
	Verbose    bool
	ConfigPath string
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Dir: "."}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Regenerate the OpenAPI document and generated file regions",
		Long: "Regenerate artifacts for the project in the current directory: the OpenAPI " +
			"document is rebuilt from scratch and generated regions are merged into existing " +
			"files. Files are only ever created or patched between markers, never deleted.",
		Example: strings.TrimSpace(`  apiforge generate
  apiforge generate --stdout
  apiforge generate --file ./api/apiforge.toml --out ./api/openapi.json --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("dir", "", "Project directory (defaults to the current directory)")
	flags.String("file", "", "Path to the configuration file (defaults to <dir>/apiforge.toml)")
	flags.String("out", "", "Where to write the OpenAPI document (defaults to ./openapi.json)")
	flags.Bool("stdout", false, "Print the OpenAPI document instead of writing it")
	flags.Bool("dry-run", false, "Preview planned file operations without writing")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.Dir = strings.TrimSpace(cfg.Dir)
	cfg.File = strings.TrimSpace(cfg.File)
	cfg.Out = strings.TrimSpace(cfg.Out)
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	if flags.Changed("dir") {
		value, err := flags.GetString("dir")
		if err != nil {
			return err
		}
		cfg.Dir = strings.TrimSpace(value)
	}
	if flags.Changed("file") {
		value, err := flags.GetString("file")
		if err != nil {
			return err
		}
		cfg.File = strings.TrimSpace(value)
	}
	if flags.Changed("out") {
		value, err := flags.GetString("out")
		if err != nil {
			return err
		}
		cfg.Out = strings.TrimSpace(value)
	}
	if flags.Changed("stdout") {
		value, err := flags.GetBool("stdout")
		if err != nil {
			return err
		}
		cfg.Stdout = value
	}
	if flags.Changed("dry-run") {
		value, err := flags.GetBool("dry-run")
		if err != nil {
			return err
		}
		cfg.DryRun = value
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}
	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	_, err := scaffold.Generate(ctx, scaffold.GenerateOptions{
		Dir:        cfg.Dir,
		ConfigPath: cfg.File,
		DocPath:    cfg.Out,
		Stdout:     cfg.Stdout,
		DryRun:     cfg.DryRun,
		Verbose:    cfg.Verbose,
		Out:        os.Stdout,
	})
	return err
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		switch normalizeKey(key) {
		case "dir":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Dir = str
		case "file":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.File = str
		case "out":
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Out = str
		case "stdout":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Stdout = val
		case "dryrun":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.DryRun = val
		case "verbose":
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Verbose = val
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
	}
	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
