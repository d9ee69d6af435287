package main

import (
	"go.uber.org/zap"

	"github.com/cppla/miniblog/config"
	"github.com/cppla/miniblog/routes"
	"github.com/cppla/miniblog/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	if client := utils.InitRedis(cfg); client != nil {
		defer client.Close()
	}

	db, err := config.InitDatabase(cfg, zap.NewStdLog(utils.Logger.Named("gorm")))
	if err != nil {
		utils.Sugar.Fatalf("database init failed: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		utils.Sugar.Fatalf("migration failed: %v", err)
	}

	r, err := routes.SetupRouter(db, cfg)
	if err != nil {
		utils.Sugar.Fatalf("router setup failed: %v", err)
	}

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
