package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/adapters/database"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/application/services"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/evaluation"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
	"github.com/drkhalidabdullah/islamwiki-sub001/pkg/config"
)

type options struct {
	goldenPath string
	policy     string
	k          int
	guardrails evaluation.GuardrailConfig
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("islamwiki-evaluate", cfg.Server.Environment, cfg.Server.LogLevel)

	var opts options
	rootCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Replay the golden query set and score the rankings",
		Example: `  evaluate --golden config/golden_queries.json
  evaluate --policy phrase_any_field --min-recall 0.6 --min-mrr 0.5`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cfg, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.goldenPath, "golden", "g", "config/golden_queries.json", "golden query set")
	flags.StringVar(&opts.policy, "policy", cfg.Search.APIMatchPolicy, "match policy: phrase_any_field or all_terms_any_field")
	flags.IntVar(&opts.k, "k", evaluation.DefaultK, "ranking cutoff")
	flags.Float64Var(&opts.guardrails.MinRecall, "min-recall", 0, "fail when average recall is below this")
	flags.Float64Var(&opts.guardrails.MinMRR, "min-mrr", 0, "fail when average MRR is below this")
	flags.Float64Var(&opts.guardrails.MinIntentAccuracy, "min-intent-accuracy", 0, "fail when intent accuracy is below this")
	flags.IntVar(&opts.guardrails.MaxFailed, "max-failed", 0, "fail when more queries than this error out")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("evaluation failed")
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, cfg *config.Config, opts options) error {
	queries, err := evaluation.LoadGoldenQueries(opts.goldenPath)
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()

	taxonomy, err := services.LoadTaxonomy(cfg.Search.TaxonomyPath)
	if err != nil {
		return fmt.Errorf("failed to load search taxonomy: %w", err)
	}

	// No analytics: replaying the golden set must not show up in search statistics.
	searchService := services.NewSearchService([]repositories.ContentSearchRepository{
		database.NewArticleAdapter(pgClient),
		database.NewUserAdapter(pgClient),
		database.NewPostAdapter(pgClient),
		database.NewGroupAdapter(pgClient),
		database.NewEventAdapter(pgClient),
		database.NewCommunityAdapter(pgClient),
	}, services.NewQueryParser(taxonomy), services.NewRelevanceScorer(), cfg.Search)

	runner := evaluation.NewRunner(searchService, repositories.ParseMatchPolicy(opts.policy), opts.k)
	summary, err := runner.Run(cmd.Context(), queries)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if violations := evaluation.NewGuardrails(opts.guardrails).Check(summary); len(violations) > 0 {
		return fmt.Errorf("guardrails violated: %s", strings.Join(violations, "; "))
	}
	return nil
}
