package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"kaari_back_end/internal/cache"
	"kaari_back_end/internal/config"
	"kaari_back_end/internal/database"
	"kaari_back_end/internal/repository"
	"kaari_back_end/internal/services"
)

func newSeedCmd(loadConfig func() *config.Config) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Charge les données de test (fixtures YAML)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures := services.DefaultFixtures
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("lecture %s: %w", file, err)
				}
				fixtures = data
			}

			store, err := openStore(loadConfig)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := services.NewTestDataService(store).Seed(cmd.Context(), fixtures)
			if err != nil {
				return err
			}
			printCounts(cmd, "chargés", counts)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fichier de fixtures (jeu intégré par défaut)")
	return cmd
}

func newCleanupCmd(loadConfig func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-test-data",
		Short: "Supprime tous les documents marqués isTestData",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(loadConfig)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := services.NewTestDataService(store).Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			printCounts(cmd, "supprimés", counts)
			return nil
		},
	}
}

func newMigrateCmd(loadConfig func() *config.Config) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate-reservations",
		Short: "Déplace les réservations de requests vers reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(loadConfig)
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := repository.New(store, nil).MigrateReservations(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			prefix := ""
			if dryRun {
				prefix = "[dry-run] "
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%sparcourues: %d, déplacées: %d, conflits: %d, échecs: %d\n",
				prefix, report.Scanned, report.Moved, len(report.Conflicts), len(report.Failed))
			for _, id := range report.Conflicts {
				fmt.Fprintf(cmd.OutOrStdout(), "conflit: %s existe déjà dans reservations\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compte sans écrire")
	return cmd
}

func newReindexCmd(loadConfig func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Réindexe toutes les demandes dans Elasticsearch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if err := database.ConnectDatabases(cfg); err != nil {
				return err
			}
			defer database.CloseDatabases()
			if database.Elastic == nil {
				return fmt.Errorf("%w: ELASTIC_URL non configuré", services.ErrUnavailable)
			}

			repo := repository.New(database.Store, cache.New(database.Redis))
			n, err := services.Reindex(cmd.Context(), repo, services.NewSearchService(database.Elastic, cfg.ElasticIndex))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d demandes indexées\n", n)
			return nil
		},
	}
}

func printCounts(cmd *cobra.Command, verb string, counts map[string]int) {
	collections := make([]string, 0, len(counts))
	for c := range counts {
		collections = append(collections, c)
	}
	sort.Strings(collections)
	for _, c := range collections {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d documents %s\n", c, counts[c], verb)
	}
}
