package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/plcscope/plcscope/internal/config"
	"github.com/plcscope/plcscope/internal/core/validation"
	"github.com/plcscope/plcscope/internal/core/waveform"
	"github.com/plcscope/plcscope/internal/data/parser"
)

var (
	validateRules  string
	validateParser string
	validateTz     string

	validateCmd = &cobra.Command{
		Use:   "validate <log-file>",
		Short: "Check signal behavior against a rules file",
		Long: `Validate parses a log, rebuilds per-signal state timelines, and checks
them against the patterns in a YAML rules file (toggle sequences, handshakes,
timeouts). Findings are printed per device with their severity.

The command exits non-zero when any error-severity violation is found, so it
can gate automated checks.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
)

func init() {
	validateCmd.Flags().StringVar(&validateRules, "rules", "",
		"Rules file path (falls back to rules in the config file)")
	validateCmd.Flags().StringVar(&validateParser, "parser", "",
		"Force a specific parser (default auto-detect)")
	validateCmd.Flags().StringVar(&validateTz, "timezone", "Local",
		"Timezone for displayed timestamps")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig()
	if err != nil {
		return err
	}
	if err := initRuntime(cfg, validateTz); err != nil {
		return err
	}

	rulesPath := validateRules
	if rulesPath == "" {
		rulesPath = cfg.RulesPath
	}
	if rulesPath == "" {
		return fmt.Errorf("no rules file: pass --rules or set rules in the config file")
	}

	path, err := config.ExpandPath(args[0])
	if err != nil {
		return err
	}

	result := parser.NewDefaultRegistry().Parse(path, validateParser)
	if !result.Success() {
		return fmt.Errorf("parse %s: %s", path, parseFailureMessage(result))
	}

	validator, err := validation.NewSignalValidator(config.MustExpand(rulesPath))
	if err != nil {
		return err
	}

	signals := waveform.BuildSignals(result.Data)
	byDevice := validator.ValidateAll(signals)

	devices := make([]string, 0, len(byDevice))
	for device := range byDevice {
		devices = append(devices, device)
	}
	sort.Strings(devices)

	counts := map[string]int{}
	for _, device := range devices {
		violations := byDevice[device]
		if len(violations) == 0 {
			continue
		}
		fmt.Printf("%s:\n", device)
		for _, v := range violations {
			fmt.Printf("  %s\n", v.String())
			counts[v.Severity]++
		}
	}

	total := counts[validation.SeverityError] + counts[validation.SeverityWarning] + counts[validation.SeverityInfo]
	if total == 0 {
		fmt.Printf("OK: %d signals checked, no violations\n", len(signals))
		return nil
	}

	fmt.Printf("\n%d violations: %d errors, %d warnings, %d info\n",
		total, counts[validation.SeverityError], counts[validation.SeverityWarning], counts[validation.SeverityInfo])

	if counts[validation.SeverityError] > 0 {
		return fmt.Errorf("validation failed with %d error violations", counts[validation.SeverityError])
	}
	return nil
}
