package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/billlink-backend/internal/adapter/grpc"
	"github.com/simaogato/billlink-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/billlink-backend/internal/adapter/web"
	"github.com/simaogato/billlink-backend/internal/session"
	"github.com/simaogato/billlink-backend/internal/usecase/admin"
	"github.com/simaogato/billlink-backend/internal/usecase/fetcher"
	"github.com/simaogato/billlink-backend/internal/usecase/seeder"
	"github.com/simaogato/billlink-backend/internal/usecase/wizard"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the customer web server and the admin gRPC server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	// 1. Setup Database
	cfg, db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	// 2. Initialize Repositories (Postgres)
	billRepo := postgres.NewBillRepository(db)

	if cfg.SeedDemoBill {
		created, err := seeder.NewDemoSeeder(billRepo).Seed(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed demo bill: %w", err)
		}
		logger.Info("demo bill ready", zap.String("bill_id", seeder.DemoBillID), zap.Bool("created", created))
	}

	// 3. Initialize Services (Use Cases)
	limit := rate.Inf
	if cfg.Fetch.RatePerSecond > 0 {
		limit = rate.Limit(cfg.Fetch.RatePerSecond)
	}
	burst := max(cfg.Fetch.Burst, 1)
	limiter := rate.NewLimiter(limit, burst)
	fetchLogger := logger.Named("fetcher")

	primary := fetcher.NewLoader(
		fetcher.New(billRepo, fetcher.PrimaryPolicy, fetcher.WithLimiter(limiter), fetcher.WithLogger(fetchLogger)),
		fetcher.WithLoaderLogger(fetchLogger),
	)
	step := fetcher.NewLoader(
		fetcher.New(billRepo, fetcher.StepPolicy, fetcher.WithLimiter(limiter), fetcher.WithLogger(fetchLogger)),
		fetcher.WithLoaderLogger(fetchLogger),
	)

	ttl, err := cfg.SessionTTL()
	if err != nil {
		return err
	}
	store := session.NewMemoryStore(ttl)
	defer store.Close()

	wizardService := wizard.NewWizardService(store, logger.Named("wizard"))
	adminService := admin.NewAdminService(billRepo)

	// 4. Web server
	gin.SetMode(gin.ReleaseMode)
	webServer, err := web.NewServer(primary, step, wizardService, logger.Named("http"),
		web.WithSecureCookies(cfg.HTTP.SecureCookies),
	)
	if err != nil {
		return fmt.Errorf("failed to build web server: %w", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           webServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 5. gRPC server with logging and auth
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(logger.Named("grpc")),
			grpcadapter.AuthInterceptor(cfg.GRPC.APIToken),
		),
	)
	grpcadapter.RegisterBillAdminServer(grpcServer, grpcadapter.NewServer(adminService))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPC.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPC.Addr))
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, grpclib.ErrServerStopped) {
		return err
	}
	logger.Info("servers stopped")
	return nil
}
