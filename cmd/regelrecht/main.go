package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/datasource"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/registry"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/repository"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/service"
)

var version = "0.1.0"

// regulationRoot is the directory the regulations are read from, set by the
// --regulations flag; svc is populated by the root command's
// PersistentPreRunE and consulted by every subcommand that needs a live
// Service.
var (
	regulationRoot string
	verbose        bool

	svc *service.Service
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "regelrecht",
		Short: "Dutch benefit law evaluation engine",
		Long: `regelrecht evaluates Dutch social benefit and tax regulations
expressed as declarative YAML rule trees.

It loads a directory of regulation documents, resolves the article
producing a requested output, and evaluates its decision tree against
caller-supplied parameters and registered data sources.`,
		Version:           version,
		PersistentPreRunE: loadRegulations,
	}

	rootCmd.PersistentFlags().StringVarP(&regulationRoot, "regulations", "r", "regulations", "Root directory of regulation YAML documents")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(lawsCmd())
	rootCmd.AddCommand(outputsCmd())
	rootCmd.AddCommand(lawInfoCmd())
	rootCmd.AddCommand(graphCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadRegulations(cmd *cobra.Command, args []string) error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	repo := repository.New(regulationRoot)
	reg := registry.New()
	if err := reg.Load(cmd.Context(), repo); err != nil {
		return fmt.Errorf("loading regulations from %s: %w", regulationRoot, err)
	}

	svc = service.New(reg, service.WithDataSources(datasource.NewRegistry()))
	return nil
}

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <law-id> <output-name>",
		Short: "Evaluate a regulation output for a set of parameters",
		Args:  cobra.ExactArgs(2),
		Long: `Evaluate resolves the article producing <output-name> in <law-id>
and runs it against the parameters given with --param key=value.

Example:
  regelrecht evaluate zorgtoeslag is_verzekerde_zorgtoeslag \
    --param bsn=123456789 --date 2025-01-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lawID, outputName := args[0], args[1]

			paramFlags, _ := cmd.Flags().GetStringSlice("param")
			date, _ := cmd.Flags().GetString("date")
			asJSON, _ := cmd.Flags().GetBool("json")

			params, err := parseParams(paramFlags)
			if err != nil {
				return err
			}

			result, err := svc.EvaluateLawOutput(cmd.Context(), lawID, outputName, params, date)
			if err != nil {
				return fmt.Errorf("evaluating %s/%s: %w", lawID, outputName, err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"article_number":  result.ArticleNumber,
					"law_id":          result.LawID,
					"output":          result.Output,
					"resolved_inputs": result.Input,
				})
			}

			fmt.Printf("article %s of %s\n", result.ArticleNumber, result.LawID)
			for name, value := range result.Output {
				fmt.Printf("  %s = %v\n", name, value)
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("param", nil, "Caller parameter as key=value, repeatable")
	cmd.Flags().String("date", "", "Calculation date (YYYY-MM-DD), defaults to today")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	return cmd
}

func parseParams(flags []string) (map[string]any, error) {
	params := make(map[string]any, len(flags))
	for _, f := range flags {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", f)
		}
		params[key] = value
	}
	return params, nil
}

func lawsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "laws",
		Short: "List every loaded regulation identifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range svc.ListLaws() {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func outputsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outputs",
		Short: "List every (law_id, output_name) pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, pair := range svc.ListOutputs() {
				fmt.Printf("%s\t%s\n", pair[0], pair[1])
			}
			return nil
		},
	}
}

func lawInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "law-info <law-id>",
		Short: "Show discovery metadata for a loaded regulation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, ok := svc.LawInfo(args[0])
			if !ok {
				return fmt.Errorf("law %q is not loaded", args[0])
			}
			fmt.Printf("id:               %s\n", info.ID)
			fmt.Printf("uuid:             %s\n", info.UUID)
			fmt.Printf("regulatory_layer: %s\n", info.RegulatoryLayer)
			fmt.Printf("publication_date: %s\n", info.PublicationDate)
			fmt.Printf("bwb_id:           %s\n", info.BwbID)
			fmt.Printf("url:              %s\n", info.URL)
			fmt.Printf("articles:         %d\n", info.ArticleCount)
			fmt.Printf("outputs:          %s\n", strings.Join(info.Outputs, ", "))
			return nil
		},
	}
}

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the legal-basis relationship graph as Graphviz DOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			dot := svc.RenderLegalBasisGraph()
			if output == "" {
				fmt.Println(dot)
				return nil
			}
			return os.WriteFile(output, []byte(dot), 0644)
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write the DOT document to this file instead of stdout")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the regulation root for changes and reload in place",
		Long: `Watch keeps the process running, reloading the registry whenever a
regulation YAML file under --regulations is created, written, or removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := repository.New(regulationRoot)
			reg := registry.New()
			if err := reg.Load(cmd.Context(), repo); err != nil {
				return fmt.Errorf("loading regulations from %s: %w", regulationRoot, err)
			}

			watcher := repository.NewWatcher(repo, reg, repository.WithOnReload(func(err error) {
				if err != nil {
					log.Error().Err(err).Msg("reload failed")
					return
				}
				log.Info().Int("laws", reg.LawCount()).Msg("reloaded")
			}))
			if err := watcher.Start(); err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer watcher.Stop()

			fmt.Printf("watching %s for changes, press ctrl-c to stop\n", regulationRoot)
			<-cmd.Context().Done()
			return nil
		},
	}
}
