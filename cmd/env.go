package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/esg-intel/internal/catalog"
	"github.com/sells-group/esg-intel/internal/extract"
	"github.com/sells-group/esg-intel/internal/ocr"
	"github.com/sells-group/esg-intel/internal/pipeline"
	"github.com/sells-group/esg-intel/internal/store"
	"github.com/sells-group/esg-intel/internal/vectorindex"
	anthropicpkg "github.com/sells-group/esg-intel/pkg/anthropic"
	"github.com/sells-group/esg-intel/pkg/jina"
)

// pipelineEnv holds the initialized store, catalog, and pipeline needed by
// the process/batch/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Catalog  *catalog.Compiled
	Pipeline *pipeline.Pipeline

	// vectorStore is set only when the vector index dialed its own pool.
	vectorStore *store.PostgresStore
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.vectorStore != nil {
		_ = pe.vectorStore.Close()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "esgintel.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func loadCatalog() (*catalog.Compiled, error) {
	if cfg.Catalog.Path == "" {
		return catalog.MustCompileDefault(), nil
	}
	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "load catalog %s", cfg.Catalog.Path)
	}
	compiled, err := cat.Compile()
	if err != nil {
		return nil, eris.Wrapf(err, "compile catalog %s", cfg.Catalog.Path)
	}
	return compiled, nil
}

// initPipeline sets up the store, catalog, OCR engine, optional AI and
// embedding clients, and builds the Pipeline. Callers should defer
// env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	cat, err := loadCatalog()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	engine, err := ocr.NewEngine(cfg.OCR)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "init ocr engine")
	}
	if !engine.Available() {
		zap.L().Debug("ocr engine unavailable, image-only documents will fail extraction",
			zap.String("provider", cfg.OCR.Provider))
	}
	extractor := extract.New(cfg.Extract, engine)

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	jinaClient := jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL), jina.WithModel(cfg.Jina.Model))

	index, vectorStore, err := initVectorIndex(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	p, err := pipeline.New(cfg, st, cat, extractor, pipeline.Options{
		Anthropic: anthropicClient,
		Jina:      jinaClient,
		Index:     index,
	})
	if err != nil {
		if vectorStore != nil {
			_ = vectorStore.Close()
		}
		_ = st.Close()
		return nil, eris.Wrap(err, "build pipeline")
	}

	zap.L().Info("pipeline initialized",
		zap.String("store", cfg.Store.Driver),
		zap.String("catalog_version", cat.Version),
		zap.String("ocr", cfg.OCR.Provider),
		zap.Bool("ai", anthropicClient.Available()),
		zap.Bool("embeddings", jinaClient.Available() && index.Available()),
	)

	return &pipelineEnv{Store: st, Catalog: cat, Pipeline: p, vectorStore: vectorStore}, nil
}

// initVectorIndex wires the pgvector index when configured. It reuses the
// store's pool when both point at the same Postgres database; when a
// dedicated pool is dialed, it is returned so the caller can close it.
func initVectorIndex(ctx context.Context, st store.Store) (vectorindex.Index, *store.PostgresStore, error) {
	if cfg.Vector.Driver != "postgres" {
		return vectorindex.Noop{}, nil, nil
	}

	var owned *store.PostgresStore
	ps, ok := st.(*store.PostgresStore)
	if !ok || cfg.Vector.DatabaseURL != "" {
		dialed, err := store.NewPostgres(ctx, cfg.Vector.DatabaseURL, nil)
		if err != nil {
			return nil, nil, eris.Wrap(err, "connect vector database")
		}
		ps = dialed
		owned = dialed
	}

	index := vectorindex.NewPostgres(ps.Pool(), cfg.Jina.Dimension)
	if err := index.EnsureSchema(ctx); err != nil {
		if owned != nil {
			_ = owned.Close()
		}
		return nil, nil, err
	}
	zap.L().Info("vector index enabled", zap.Int("dimension", cfg.Jina.Dimension))
	return index, owned, nil
}
