package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"folio/internal/queue"
	"folio/internal/storage"
	"folio/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/cobra"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions

	User string
}

// NewSubmitCommand creates the submit command, which uploads a workbook
// to S3 and queues it for the import worker.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "submit <workbook>",
		Short:        "Upload a workbook and queue it for the import worker",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd.Context(), opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.User, "user", "", "username the imported documents are attributed to")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runSubmit(ctx context.Context, opts *SubmitOptions, workbookPath string) error {
	f, err := os.Open(workbookPath)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	client := storage.NewS3Client(ctx)
	if client == nil {
		return fmt.Errorf("failed to initialize S3 client")
	}

	runID, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate run ID: %w", err)
	}

	fileKey, err := storage.PutFile(ctx, client, "imports", filepath.Base(workbookPath), runID, f)
	if err != nil {
		return err
	}

	logger.Info("[CLI] Uploaded workbook", "key", fileKey)

	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	payload, err := json.Marshal(queue.ImportMessage{
		FileKey: fileKey,
		User:    opts.User,
		RunID:   runID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal import message: %w", err)
	}

	if err := queue.PublishFIFO(ch, queue.ImportQueue, payload); err != nil {
		return fmt.Errorf("failed to queue import: %w", err)
	}

	logger.Info("[CLI] Import queued", "run_id", runID, "user", opts.User)

	return nil
}
