package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dataharvester/dataharvester/backend/go-services/internal/config"
	"github.com/dataharvester/dataharvester/backend/go-services/internal/database"
	"github.com/dataharvester/dataharvester/backend/go-services/internal/projects"
	"github.com/dataharvester/dataharvester/backend/go-services/internal/schema"
	"github.com/dataharvester/dataharvester/backend/go-services/internal/storage"
	"github.com/dataharvester/dataharvester/backend/go-services/pkg/logger"
)

// Version is reported by --version.
var Version = "0.1.0"

// GlobalOptions is shared by every command once the configuration is loaded.
type GlobalOptions struct {
	Conf *config.Config
}

// SchemaOptions derives the initializer options from the loaded configuration.
func (g *GlobalOptions) SchemaOptions() schema.Options {
	return schema.Options{RawTranscriptsTTL: g.Conf.Schema.EffectiveTTL()}
}

// backend bundles what a command needs from the database.
type backend struct {
	catalog  schema.Catalog
	projects projects.Repository
	close    func()
}

// openBackend connects to MongoDB. Tests swap it for an in-memory backend.
var openBackend = func(ctx context.Context, cfg *config.Config) (*backend, error) {
	db, closeFn, err := database.OpenDatabase(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database, cfg.MongoDB.Timeout)
	if err != nil {
		return nil, err
	}
	return &backend{
		catalog:  schema.NewMongoCatalog(db),
		projects: projects.NewMongoRepository(db.Collection(schema.ProjectsCollection)),
		close:    closeFn,
	}, nil
}

// reportUploader archives a run report. Nil when MinIO is not configured.
type reportUploader interface {
	UploadReport(ctx context.Context, r *schema.Report) (string, error)
}

var newReportUploader = func(ctx context.Context) (reportUploader, error) {
	mc := storage.LoadMinIOConfig()
	if !mc.Enabled() {
		return nil, nil
	}
	s, err := storage.NewMinIOStorage(ctx, mc)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewRootCommand builds the schema-init command tree.
func NewRootCommand() *cobra.Command {
	globalOptions := &GlobalOptions{}
	var projectFlags []string

	rootCmd := &cobra.Command{
		Use:     "schema-init",
		Short:   "Initialize the dataharvester MongoDB schema",
		Version: Version,
		Long: `Creates the projects collection with its indexes and, for every configured
project, the {project}_raw, {project}_cleaned and {project}_processed collections.
Running it again is safe: existing collections and indexes are left as they are.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			logger.Init(cfg.LogLevel)
			logger.Debugf("config loaded: log_level=%s database=%s ttl=%s", logger.LevelString(), cfg.MongoDB.Database, cfg.Schema.EffectiveTTL())
			globalOptions.Conf = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			names := globalOptions.Conf.Schema.Projects
			if cmd.Flags().Changed("project") {
				names = projectFlags
			}
			return runInitialize(cmd.Context(), globalOptions, names, true)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("mongo-uri", "", "MongoDB connection string. (Env: MONGODB_URI)")
	pf.String("database", "dataharvester", "Database to initialize. (Env: MONGODB_DATABASE)")
	pf.Int("timeout", 10, "Connect timeout in seconds. (Env: MONGODB_TIMEOUT)")
	pf.String("log-level", "info", "Logging level (debug, info, warn, error). (Env: LOG_LEVEL)")
	pf.Bool("raw-transcripts-ttl", false, "Create the retention index on raw_transcripts. (Env: SCHEMA_RAW_TRANSCRIPTS_TTL_ENABLED)")
	rootCmd.Flags().StringSliceVar(&projectFlags, "project", nil, "Project to provision, repeatable. (Env: SCHEMA_PROJECTS, comma separated)")

	rootCmd.AddCommand(
		NewProjectCommand(globalOptions),
		NewPlanCommand(globalOptions),
		NewServeCommand(globalOptions),
		NewTokenCommand(globalOptions),
	)
	return rootCmd
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		logger.Fatalf("%v", err)
	}
}

// runInitialize applies the base schema (when base is set) and the
// collections of every named project, then archives the run report.
func runInitialize(ctx context.Context, g *GlobalOptions, names []string, base bool) error {
	for _, n := range names {
		if err := schema.ValidateProjectName(n); err != nil {
			return err
		}
	}

	be, err := openBackend(ctx, g.Conf)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer be.close()

	ini := schema.NewInitializer(be.catalog, g.SchemaOptions())
	report := schema.NewReport(g.Conf.MongoDB.Database)
	report.Projects = names

	err = applySchema(ctx, ini, report, names, base)
	report.Finish(err)
	archiveReport(ctx, report)
	if err != nil {
		return err
	}
	logger.Infof("schema ready in %s: %d collections checked, %d created", g.Conf.MongoDB.Database, len(report.Collections), report.Created())
	return nil
}

func applySchema(ctx context.Context, ini *schema.Initializer, report *schema.Report, names []string, base bool) error {
	if base {
		res, err := ini.InitializeBaseSchema(ctx)
		report.Add(res...)
		if err != nil {
			return err
		}
	}
	for _, n := range names {
		res, err := ini.CreateProjectCollections(ctx, n)
		report.Add(res...)
		if err != nil {
			return fmt.Errorf("project %s: %w", n, err)
		}
	}
	return nil
}

// archiveReport uploads the report when MinIO is configured. Failures are
// logged; they never fail the run.
func archiveReport(ctx context.Context, report *schema.Report) {
	up, err := newReportUploader(ctx)
	if err != nil {
		logger.Warnf("run report not archived: %v", err)
		return
	}
	if up == nil {
		return
	}
	key, err := up.UploadReport(ctx, report)
	if err != nil {
		logger.Warnf("run report not archived: %v", err)
		return
	}
	logger.Infof("run report stored at %s", key)
}
