package commands

import (
	"path/filepath"

	"pulse-mcp/internal/config"
	"pulse-mcp/internal/jira"
	"pulse-mcp/internal/logging"
	"pulse-mcp/internal/mcp"
	"pulse-mcp/internal/snapshot"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	jiraClient    jira.Client
	snapshotStore *snapshot.Store
)

var rootCmd = &cobra.Command{
	Use:   "pulse-mcp",
	Short: "Pulse-MCP is a project-health analytics MCP Server for Jira",
	Long: `A specialized MCP Server that turns Jira issue history into weekly metrics,
bug resolution forecasts, quality insights and a composite project health score.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		// Load configuration
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		// Initialize Jira Client
		jiraClient = jira.NewClient(cfg.Jira)

		// Initialize snapshot persistence
		backend, err := newSnapshotBackend(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize snapshot backend")
		}
		snapshotStore = snapshot.NewStore(backend, snapshot.NewCollectionCache(), cfg.WorkspaceID)

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("workspace", cfg.WorkspaceID).
			Msg("Pulse-MCP starting")
	},
	Run: func(cmd *cobra.Command, args []string) {
		log.Info().Msg("MCP Server starting Stdio loop")
		server := mcp.NewServer(jiraClient, snapshotStore, cfg.Insights)
		if cfg.EnableMermaidCharts {
			server.EnableCharts()
		}
		if err := server.Serve(); err != nil {
			log.Fatal().Err(err).Msg("MCP server terminated")
		}
	},
}

func newSnapshotBackend(cfg *config.AppConfig) (snapshot.Backend, error) {
	if cfg.SnapshotBackend == "sqlite" {
		return snapshot.NewSQLiteBackend(filepath.Join(cfg.CacheDir, "snapshots.db"))
	}
	return snapshot.NewFileBackend(cfg.CacheDir)
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
