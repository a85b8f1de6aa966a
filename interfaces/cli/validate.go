package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bulwarklib/bulwark/infrastructure/config"
)

type validateOptions struct {
	configPath string
	strict     bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a bulwark configuration file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Field types and constraints
  - Eviction policy and algorithm names
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  bulwark validate -c config.yaml

  # Strict validation (fail on missing env vars)
  bulwark validate -c config.yaml --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")

	return cmd
}

func (a *App) validateConfig(opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	loaderOpts := []config.LoaderOption{
		config.WithValidation(true),
	}
	if opts.strict {
		loaderOpts = append(loaderOpts, config.WithStrictEnv(true))
	}

	loader := config.NewLoaderWithOptions(loaderOpts...)
	file, err := loader.LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	cacheCfg := file.CacheConfig()
	limitCfg := file.RateLimitConfig()

	fmt.Fprintf(a.stdout, "✓ Configuration is valid\n\n")
	fmt.Fprintf(a.stdout, "Cache:\n")
	fmt.Fprintf(a.stdout, "  Eviction policy: %s\n", cacheCfg.EvictionPolicy)
	fmt.Fprintf(a.stdout, "  Max memory entries: %d\n", cacheCfg.MaxMemoryEntries)
	fmt.Fprintf(a.stdout, "  Default TTL: %v\n", cacheCfg.DefaultTTL)
	fmt.Fprintf(a.stdout, "  Durable tier: %v", cacheCfg.DurableEnabled)
	if cacheCfg.DurableEnabled {
		backend := file.Cache.Store.Backend
		if backend == "" {
			backend = "memory"
		}
		fmt.Fprintf(a.stdout, " (%s)", backend)
	}
	fmt.Fprintln(a.stdout)

	fmt.Fprintf(a.stdout, "\nRate limit:\n")
	fmt.Fprintf(a.stdout, "  Algorithm: %s\n", limitCfg.Algorithm)
	fmt.Fprintf(a.stdout, "  Limit: %d per %v\n", limitCfg.MaxRequests, limitCfg.WindowDuration)
	if limitCfg.ProgressivePenalties {
		fmt.Fprintf(a.stdout, "  Progressive penalties: enabled (multiplier %.1f)\n", limitCfg.PenaltyMultiplier)
	}
	if len(limitCfg.Whitelist) > 0 {
		fmt.Fprintf(a.stdout, "  Whitelisted identifiers: %d\n", len(limitCfg.Whitelist))
	}
	if len(limitCfg.Blacklist) > 0 {
		fmt.Fprintf(a.stdout, "  Blacklisted identifiers: %d\n", len(limitCfg.Blacklist))
	}

	return nil
}
