package main

import (
	"flag"

	"github.com/joripage/matching-engine/config"
	"github.com/joripage/matching-engine/pkg/infra"
	"github.com/joripage/matching-engine/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	var configFile, source string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&source, "source", "file://migration/sql", "Migration source URL")
	flag.Parse()

	logger := logging.Init(logging.INFO)
	defer logger.Sync()

	cfg, err := config.Load(configFile)
	if err != nil {
		zap.S().Fatalf("load config: %v", err)
	}

	if err := infra.Migrate(source, cfg.EngineDB.MigrationConnURL); err != nil {
		zap.S().Fatalf("migrate: %v", err)
	}
}
