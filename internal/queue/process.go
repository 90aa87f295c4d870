package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"folio/internal/config"
	"folio/internal/util"
	"folio/pkg/logger"
	storepgx "folio/pkg/store/pgx"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"

	"folio/pkg/graph"
	"folio/pkg/loader"
	"folio/pkg/loader/s3"
	"folio/pkg/store"
)

// ImportMessage is the payload published to the import queue. RunID keys
// the run's cache directory and its progress topic, so a retried message
// resumes instead of starting over.
type ImportMessage struct {
	Message string `json:"message,omitempty"`
	FileKey string `json:"file_key"`
	User    string `json:"user"`
	RunID   string `json:"run_id"`
}

// ImportProgressMsg is published on the pubsub exchange under
// import.<run_id> after every phase change and finished batch.
type ImportProgressMsg struct {
	RunID      string                   `json:"run_id"`
	Step       *util.ImportStepProgress `json:"step,omitempty"`
	Percentage *int32                   `json:"percentage,omitempty"`
}

func ProcessImportMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
	recipe *config.Recipe,
	msg string,
) error {
	data := new(ImportMessage)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	if data.FileKey == "" || data.User == "" || data.RunID == "" {
		return fmt.Errorf("import message is missing file_key, user or run_id")
	}

	s3Bucket := util.GetEnvString("AWS_BUCKET", "folio")
	s3L := s3.NewS3WorkbookLoaderWithClient(s3Bucket, s3Client)

	file := loader.WorkbookFile{
		ID:       data.RunID,
		FilePath: data.FileKey,
		Loader:   s3L,
	}
	rows, err := loader.LoadRows(ctx, file)
	if err != nil {
		return err
	}

	directStore := storepgx.NewDirectDBStoreWithConnection(conn)
	user, found, err := directStore.FindUser(ctx, data.User)
	if err != nil {
		return fmt.Errorf("failed to look up user %s: %w", data.User, err)
	}
	if !found {
		return fmt.Errorf("unknown user %q", data.User)
	}

	outputDir := filepath.Join(util.GetEnvString("IMPORT_OUTPUT_DIR", "output"), data.RunID)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	merger := graph.NewMerger(graph.MergerParams{
		Store:     directStore,
		UserID:    user.ID,
		Namespace: recipe.Database.Namespace,
	})

	importer := graph.NewImporter(graph.ImporterParams{
		Recipe:        recipe,
		Merger:        merger,
		EntityCache:   store.LoadEntityCache(filepath.Join(outputDir, store.EntityCacheFile)),
		RelationCache: store.LoadRelationCache(filepath.Join(outputDir, store.RelationCacheFile)),
		OutputDir:     outputDir,
		Progress:      progressPublisher(ch, data.RunID),
	})

	logger.Info("[Queue] Starting import", "run_id", data.RunID, "file", data.FileKey, "user", data.User)
	return importer.Run(ctx, rows)
}

// progressPublisher fans importer progress out to subscribers on the
// pubsub exchange. Publish failures only warn; the import itself must
// not depend on the event stream.
func progressPublisher(ch *amqp091.Channel, runID string) graph.ProgressFunc {
	topic := "import." + runID
	return func(progress util.ImportProgress) {
		payload, err := json.Marshal(ImportProgressMsg{
			RunID:      runID,
			Step:       progress.Step,
			Percentage: progress.Percentage,
		})
		if err != nil {
			return
		}
		if err := PublishTopic(ch, topic, payload); err != nil {
			logger.Warn("[Queue] Failed to publish progress event", "topic", topic, "err", err)
		}
	}
}
