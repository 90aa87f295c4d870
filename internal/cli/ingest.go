package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"folio/internal/config"
	"folio/internal/timing"
	"folio/internal/util"
	"folio/pkg/graph"
	"folio/pkg/loader"
	loaderio "folio/pkg/loader/io"
	"folio/pkg/logger"
	"folio/pkg/store"
	storepgx "folio/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions

	RecipePath string
	OutputDir  string
	User       string
	BatchSize  int
}

// NewIngestCommand creates the ingest command, which imports a local
// workbook straight into the document store without going through the
// queue.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "ingest <workbook>",
		Short:        "Import a local workbook into the document store",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.RecipePath, "recipe", "recipe.yaml", "path to the import recipe")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "output", "directory for the entity and relation caches")
	cmd.Flags().StringVar(&opts.User, "user", "", "username the imported documents are attributed to")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", graph.DefaultBatchSize, "entities and relations merged per batch")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runIngest(ctx context.Context, opts *IngestOptions, workbookPath string) error {
	total := timing.Start()

	recipe, err := config.Load(opts.RecipePath)
	if err != nil {
		return err
	}

	conn, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	directStore := storepgx.NewDirectDBStoreWithConnection(conn)

	user, found, err := directStore.FindUser(ctx, opts.User)
	if err != nil {
		return fmt.Errorf("failed to look up user %s: %w", opts.User, err)
	}
	if !found {
		return fmt.Errorf("unknown user %q", opts.User)
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file := loader.WorkbookFile{
		ID:       filepath.Base(workbookPath),
		FilePath: workbookPath,
		Loader:   loaderio.NewIOWorkbookLoader(),
	}

	rows, err := loader.LoadRows(ctx, file)
	if err != nil {
		return err
	}

	merger := graph.NewMerger(graph.MergerParams{
		Store:     directStore,
		UserID:    user.ID,
		Namespace: recipe.Database.Namespace,
	})

	importer := graph.NewImporter(graph.ImporterParams{
		Recipe:        recipe,
		Merger:        merger,
		EntityCache:   store.LoadEntityCache(filepath.Join(opts.OutputDir, store.EntityCacheFile)),
		RelationCache: store.LoadRelationCache(filepath.Join(opts.OutputDir, store.RelationCacheFile)),
		BatchSize:     opts.BatchSize,
		OutputDir:     opts.OutputDir,
	})

	if err := importer.Run(ctx, rows); err != nil {
		return err
	}

	logger.Info("[CLI] Ingest finished", "workbook", workbookPath, "user", opts.User, "duration", total.String())

	return nil
}

// connectStore opens the pgx pool and waits for the store to answer.
func connectStore(ctx context.Context) (*pgxpool.Pool, error) {
	conn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	err = util.RetryErrWithContext(ctx, 5, func(ctx context.Context) error {
		return storepgx.NewDirectDBStoreWithConnection(conn).Ping(ctx)
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("document store is not reachable: %w", err)
	}

	return conn, nil
}
