package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/admin"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/publisher"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/synth"
	"github.com/nimeshabuddhika/fraud-stream-simulator/services/txn-generator/configs"
	"github.com/nimeshabuddhika/fraud-stream-simulator/services/txn-generator/internal/services"
	"go.uber.org/zap"
)

func main() {
	pkg.InitLogger("txn-generator")
	logger := pkg.Logger
	defer logger.Sync()

	cfg, err := configs.Load(logger)
	if err != nil {
		logger.Fatal("failed_to_load_config", zap.Error(err))
	}

	// SIGINT/SIGTERM stop the loop at the next sleep
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DestinationPath, 0o755); err != nil {
		logger.Fatal("failed_to_prepare_destination", zap.String("path", cfg.DestinationPath), zap.Error(err))
	}

	loop := services.NewGenerationLoop(services.GenerationLoopConfig{
		Logger: logger,
		Config: cfg,
		Assembler: synth.NewGenerator(synth.GeneratorConfig{
			Seed:      cfg.Seed,
			Customers: synth.DefaultCustomerRange,
		}),
		Publisher: publisher.New(publisher.Config{
			DestinationPath: cfg.DestinationPath,
			TempPath:        cfg.TempPath,
			AmountDivisor:   pkg.AmountScaleDivisor,
			Logger:          logger,
		}),
		Baseline: synth.BaselineDistributions(),
		Shifted:  synth.ShiftedDistributions(),
	})

	adminSrv := admin.NewServer(cfg.MetricsAddr, logger)
	adminSrv.AddCheck("destination", func(context.Context) error {
		_, err := os.Stat(cfg.DestinationPath)
		return err
	})
	adminSrv.AddCheck("generation_loop", func(context.Context) error {
		if loop.State() == services.StateTerminated {
			return errors.New("generation loop terminated")
		}
		return nil
	})
	closeAdmin, err := adminSrv.Start()
	if err != nil {
		logger.Fatal("failed_to_start_admin_server", zap.Error(err))
	}
	defer closeAdmin()

	if err := loop.Run(ctx); err != nil {
		logger.Fatal("generation_failed",
			zap.String("code", pkg.CodeOf(err)),
			zap.Int(pkg.Iteration, loop.Iteration()),
			zap.Error(err))
	}
	logger.Info("service_shutdown_completed", zap.String("state", loop.State().String()))
}
