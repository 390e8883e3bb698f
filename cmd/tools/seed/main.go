// cmd/tools/seed/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"careplus/internal/common/config"
	"careplus/internal/common/database"
	"careplus/internal/common/logger"
	"careplus/internal/search"
	"careplus/internal/store"
)

func main() {
	configPath := flag.String("config", "", "config file (default: configs/config.yaml lookup)")
	migrate := flag.Bool("migrate", true, "create tables before seeding")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := database.ConnectPostgres(ctx, cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres unreachable", zap.Error(err))
	}
	defer pg.Close()

	st := store.New(pg.DB)
	if *migrate {
		if err := st.Migrate(ctx); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
	}

	patients, err := st.Seed(ctx, time.Now())
	if err != nil {
		zapLog.Fatal("seed failed", zap.Error(err))
	}
	zapLog.Info("Demo data inserted", zap.Int("patients", len(patients)))

	if !cfg.Database.Elasticsearch.Enabled {
		return
	}
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
	if err != nil {
		zapLog.Warn("elasticsearch client failed, index not rebuilt", zap.Error(err))
		return
	}
	idx := search.NewIndex(es.Client, cfg.Database.Elasticsearch.Index, log)
	if err := idx.PutAll(ctx, patients); err != nil {
		zapLog.Warn("patient reindex failed", zap.Error(err))
		return
	}
	zapLog.Info("Patient index rebuilt", zap.String("index", cfg.Database.Elasticsearch.Index))
}
