package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kaari_back_end/internal/config"
	"kaari_back_end/internal/database"
)

// NewRootCmd construit kaarictl. Les flags peuvent aussi venir de
// l'environnement (KAARI_STORE_BACKEND, KAARI_BOLT_PATH, ...) ou d'un fichier --config.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("KAARI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var configFile string
	rootCmd := &cobra.Command{
		Use:           "kaarictl",
		Short:         "Outils d'administration Kaari",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile == "" {
				return nil
			}
			v.SetConfigFile(configFile)
			v.SetConfigType("yaml")
			return v.ReadInConfig()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "fichier de configuration YAML")
	flags.String("store-backend", "", "backend de documents (bolt ou scylla)")
	flags.String("bolt-path", "", "chemin de la base BoltDB")
	flags.StringSlice("scylla-hosts", nil, "hôtes ScyllaDB")
	flags.String("elastic-url", "", "URL Elasticsearch")
	flags.String("elastic-index", "", "index Elasticsearch des demandes")
	for _, name := range []string{"store-backend", "bolt-path", "scylla-hosts", "elastic-url", "elastic-index"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	loadConfig := func() *config.Config {
		cfg := config.FromEnv()
		if s := v.GetString("store-backend"); s != "" {
			cfg.StoreBackend = strings.ToLower(s)
		}
		if s := v.GetString("bolt-path"); s != "" {
			cfg.BoltPath = s
		}
		if hosts := v.GetStringSlice("scylla-hosts"); len(hosts) > 0 {
			cfg.ScyllaHosts = hosts
		}
		if s := v.GetString("elastic-url"); s != "" {
			cfg.ElasticURL = s
		}
		if s := v.GetString("elastic-index"); s != "" {
			cfg.ElasticIndex = s
		}
		return cfg
	}

	rootCmd.AddCommand(
		newSeedCmd(loadConfig),
		newCleanupCmd(loadConfig),
		newMigrateCmd(loadConfig),
		newReindexCmd(loadConfig),
	)
	return rootCmd
}

// Execute lance kaarictl
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func openStore(loadConfig func() *config.Config) (database.DocumentStore, error) {
	store, err := database.OpenStore(loadConfig())
	if err != nil {
		return nil, fmt.Errorf("ouverture du store: %w", err)
	}
	return store, nil
}
