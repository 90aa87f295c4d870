package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"folio/internal/config"
	"folio/internal/timing"
	gUtil "folio/internal/util"
	"folio/pkg/common"
	"folio/pkg/logger"
	"folio/pkg/store"

	"golang.org/x/sync/errgroup"
)

const DefaultBatchSize = 1000

// ProgressFunc receives a snapshot after every phase change and completed
// batch.
type ProgressFunc func(progress gUtil.ImportProgress)

// Importer drives one full import run: collect the unique entities, merge
// them in batches, persist the entity cache, then build and merge the
// relations. The relation phase never starts before every entity batch
// has finished and the entity cache is on disk, because relation tuples
// resolve their endpoints through that cache.
type Importer struct {
	recipe    *config.Recipe
	merger    *Merger
	splitter  *Splitter
	resolver  *TypeResolver
	batchSize int
	outputDir string
	progress  ProgressFunc

	mu            sync.Mutex
	entityCache   store.EntityCache
	relationCache store.RelationCache
	counts        gUtil.ImportCounts
}

type ImporterParams struct {
	Recipe *config.Recipe
	Merger *Merger
	// EntityCache and RelationCache usually come from a previous run's
	// files; nil starts empty.
	EntityCache   store.EntityCache
	RelationCache store.RelationCache
	BatchSize     int
	// OutputDir is where entities.json and relations.json are written.
	OutputDir string
	Progress  ProgressFunc
}

func NewImporter(params ImporterParams) *Importer {
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	entityCache := params.EntityCache
	if entityCache == nil {
		entityCache = store.EntityCache{}
	}
	relationCache := params.RelationCache
	if relationCache == nil {
		relationCache = store.RelationCache{}
	}

	return &Importer{
		recipe:        params.Recipe,
		merger:        params.Merger,
		splitter:      NewSplitter(params.Recipe.PrefixStrings()),
		resolver:      NewTypeResolver(params.Recipe),
		batchSize:     batchSize,
		outputDir:     params.OutputDir,
		progress:      params.Progress,
		entityCache:   entityCache,
		relationCache: relationCache,
	}
}

// Run imports the dataset. Merge failures are isolated per item so one
// bad record never aborts the run; the returned error summarizes how
// many items failed once everything else has been processed.
func (imp *Importer) Run(ctx context.Context, rows []common.Row) error {
	total := timing.Start()

	if err := imp.merger.Prime(ctx); err != nil {
		return fmt.Errorf("failed to prime store caches: %w", err)
	}

	imp.mu.Lock()
	imp.counts.Loaded = true
	imp.mu.Unlock()

	entities := CollectEntities(rows, imp.recipe, imp.splitter, imp.resolver)
	logger.Info("[Import] Collected unique entities", "count", len(entities))

	if err := imp.mergeEntities(ctx, entities); err != nil {
		return err
	}

	builder := NewRelationBuilder(RelationBuilderParams{
		Recipe:      imp.recipe,
		Splitter:    imp.splitter,
		Resolver:    imp.resolver,
		EntityCache: imp.entityCache,
		TypeNames:   imp.merger.TypeNames(),
	})
	tuples := builder.Collect(rows)
	logger.Info("[Import] Collected unique relations", "count", len(tuples))

	if err := imp.mergeRelations(ctx, tuples); err != nil {
		return err
	}

	imp.mu.Lock()
	imp.counts.Completed = true
	counts := imp.counts
	imp.mu.Unlock()
	imp.reportProgress()

	logger.Info("[Import] Import completed",
		"entities", counts.EntityDone,
		"relations", counts.RelationDone,
		"duration", total.String(),
	)

	if failed := counts.FailedItems + counts.RelationFailed; failed > 0 {
		return fmt.Errorf("%d of %d items failed to merge", failed, counts.EntityTotal+counts.RelationTotal)
	}
	return nil
}

func (imp *Importer) mergeEntities(ctx context.Context, entities map[common.EntityKey]common.Entity) error {
	stopwatch := timing.Start()

	list := make([]common.Entity, 0, len(entities))
	for _, entity := range entities {
		list = append(list, entity)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Type != list[j].Type {
			return list[i].Type < list[j].Type
		}
		return list[i].Name < list[j].Name
	})

	imp.mu.Lock()
	imp.counts.EntityTotal = int64(len(list))
	imp.mu.Unlock()
	imp.reportProgress()

	err := store.ChunkRange(len(list), imp.batchSize, func(start, end int) error {
		group, gCtx := errgroup.WithContext(ctx)
		for _, entity := range list[start:end] {
			group.Go(func() error {
				id, merged, err := imp.merger.MergeEntity(gCtx, entity.Type, entity.Name, entity.Params)
				if err != nil {
					if gCtx.Err() != nil {
						return gCtx.Err()
					}
					logger.Error("[Import] Failed to merge entity", "type", entity.Type, "name", entity.Name, "error", err)
					imp.mu.Lock()
					imp.counts.FailedItems++
					imp.mu.Unlock()
					return nil
				}

				imp.mu.Lock()
				imp.counts.EntityDone++
				if merged {
					imp.entityCache.Put(entity.Type, entity.Name, id)
				}
				imp.mu.Unlock()
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
		imp.reportProgress()
		return nil
	})
	if err != nil {
		return err
	}

	if err := imp.entityCache.Save(filepath.Join(imp.outputDir, store.EntityCacheFile)); err != nil {
		return fmt.Errorf("failed to save entity cache: %w", err)
	}

	imp.mu.Lock()
	done, failed := imp.counts.EntityDone, imp.counts.FailedItems
	imp.mu.Unlock()
	logger.Info("[Import] Entity phase completed", "merged", done, "failed", failed, "duration", stopwatch.String())
	return nil
}

func (imp *Importer) mergeRelations(ctx context.Context, tuples []common.RelationTuple) error {
	stopwatch := timing.Start()

	imp.mu.Lock()
	imp.counts.RelationTotal = int64(len(tuples))
	imp.mu.Unlock()
	imp.reportProgress()

	err := store.ChunkRange(len(tuples), imp.batchSize, func(start, end int) error {
		group, gCtx := errgroup.WithContext(ctx)
		for _, tuple := range tuples[start:end] {
			group.Go(func() error {
				id, merged, err := imp.merger.MergeRelation(gCtx, tuple)
				if err != nil {
					if gCtx.Err() != nil {
						return gCtx.Err()
					}
					logger.Error("[Import] Failed to merge relation", "relation", tuple.Name, "error", err)
					imp.mu.Lock()
					imp.counts.RelationFailed++
					imp.mu.Unlock()
					return nil
				}

				imp.mu.Lock()
				imp.counts.RelationDone++
				if merged {
					imp.relationCache.Append(tuple.Name, tuple.SrcType, id)
				}
				imp.mu.Unlock()
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
		imp.reportProgress()
		return nil
	})
	if err != nil {
		return err
	}

	if err := imp.relationCache.Save(filepath.Join(imp.outputDir, store.RelationCacheFile)); err != nil {
		return fmt.Errorf("failed to save relation cache: %w", err)
	}

	imp.mu.Lock()
	done, failed := imp.counts.RelationDone, imp.counts.RelationFailed
	imp.mu.Unlock()
	logger.Info("[Import] Relation phase completed", "merged", done, "failed", failed, "duration", stopwatch.String())
	return nil
}

func (imp *Importer) reportProgress() {
	if imp.progress == nil {
		return
	}
	imp.mu.Lock()
	counts := imp.counts
	imp.mu.Unlock()
	imp.progress(gUtil.BuildImportProgress(counts))
}
