package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pagemorph/pagemorph/pkg/rule"
	"github.com/pagemorph/pagemorph/pkg/store"
	"github.com/pagemorph/pagemorph/pkg/types"
)

var (
	rulesDBPath   string
	rulesFilePath string
	rulesOutPath  string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage replacement rules",
	Long:  "Commands for listing, validating, importing, and exporting replacement rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules from a rules file or database",
	RunE:  runRulesList,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a rules file against the engine's limits",
	RunE:  runRulesValidate,
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import rules from a YAML or JSON file into the database",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesImport,
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export database rules as JSON",
	RunE:  runRulesExport,
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesDBPath, "db", "", "Path to the rules database")
	rulesCmd.PersistentFlags().StringVar(&rulesFilePath, "rules", "", "Path to a rules file (YAML or JSON)")
	rulesExportCmd.Flags().StringVarP(&rulesOutPath, "output", "o", "", "Write exported rules to this file instead of stdout")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesImportCmd)
	rulesCmd.AddCommand(rulesExportCmd)
}

// loadRuleSet resolves the rule source: an explicit file beats the database.
func loadRuleSet(cmd *cobra.Command) (types.RuleSet, error) {
	if rulesFilePath != "" {
		return rule.LoadFile(rulesFilePath)
	}
	if rulesDBPath == "" {
		return nil, fmt.Errorf("either --rules or --db is required")
	}

	s, err := store.New(store.Config{Path: rulesDBPath})
	if err != nil {
		return nil, fmt.Errorf("opening rules database: %w", err)
	}
	defer s.Close()
	return s.Load(cmd.Context())
}

func runRulesList(cmd *cobra.Command, args []string) error {
	set, err := loadRuleSet(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORIGINAL\tREPLACEMENT\tCASE\tENABLED")
	for _, original := range rule.SortedOriginals(set) {
		r := set[original]
		caseMode := "insensitive"
		if r.CaseSensitive {
			caseMode = "sensitive"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", r.Original, r.Replacement, caseMode, r.Enabled)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d rule(s), %d enabled\n", len(set), len(set.EnabledRules()))
	return nil
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	set, err := loadRuleSet(cmd)
	if err != nil {
		return err
	}

	errs := rule.ValidateSet(set)
	if len(errs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d rule(s)\n", len(set))
		return nil
	}
	for _, e := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", e)
	}
	return fmt.Errorf("%d validation error(s)", len(errs))
}

func runRulesImport(cmd *cobra.Command, args []string) error {
	if rulesDBPath == "" {
		return fmt.Errorf("--db is required")
	}

	set, err := rule.LoadFile(args[0])
	if err != nil {
		return err
	}
	if errs := rule.ValidateSet(set); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", e)
		}
		return fmt.Errorf("refusing to import: %d validation error(s)", len(errs))
	}

	s, err := store.New(store.Config{Path: rulesDBPath})
	if err != nil {
		return fmt.Errorf("opening rules database: %w", err)
	}
	defer s.Close()

	if err := s.Save(cmd.Context(), set); err != nil {
		return fmt.Errorf("saving rules: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d rule(s)\n", len(set))
	return nil
}

func runRulesExport(cmd *cobra.Command, args []string) error {
	if rulesDBPath == "" {
		return fmt.Errorf("--db is required")
	}

	s, err := store.New(store.Config{Path: rulesDBPath})
	if err != nil {
		return fmt.Errorf("opening rules database: %w", err)
	}
	defer s.Close()

	set, err := s.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	data, err := rule.ExportJSON(set)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if rulesOutPath == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(rulesOutPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", rulesOutPath, err)
	}
	return nil
}
