package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/emresahna/logd/internal/config"
	pb "github.com/emresahna/logd/internal/sender"
	"github.com/emresahna/logd/internal/server"
	"github.com/emresahna/logd/internal/storage"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.NewClickHouse(storage.Config{
		Addr:     cfg.ClickHouseConfig.Addr,
		Database: cfg.ClickHouseConfig.DB,
		User:     cfg.ClickHouseConfig.User,
		Password: cfg.ClickHouseConfig.Password,
	})
	if err != nil {
		log.Fatalf("DB connection error: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	if err := run(ctx, cfg, db); err != nil {
		log.Fatalf("collector: %v", err)
	}
	log.Println("collector shut down")
}

// newGRPCServer registers the log service and a health service that reports
// SERVING for it.
func newGRPCServer(store server.Store) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer()
	pb.RegisterLogServiceServer(srv, server.NewGrpcServer(store))

	hs := health.NewServer()
	hs.SetServingStatus(pb.LogService_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}

// run serves gRPC ingestion and the HTTP query API until ctx is done or
// either server fails.
func run(ctx context.Context, cfg config.Config, store server.Store) error {
	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	grpcServer, hs := newGRPCServer(store)
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: server.NewHttpServer(store).Handler(),
	}

	errs := make(chan error, 2)
	go func() {
		log.Printf("gRPC server listening on %s", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			errs <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		log.Printf("HTTP server listening on port %s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errs:
	}

	hs.Shutdown()
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTPShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("http shutdown: %w", err)
	}
	return serveErr
}
