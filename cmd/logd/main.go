package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/emresahna/logd/internal/config"
	"github.com/emresahna/logd/internal/diagnostics"
	"github.com/emresahna/logd/internal/enrichment"
	"github.com/emresahna/logd/internal/listener"
	"github.com/emresahna/logd/internal/pipeline"
	"github.com/emresahna/logd/internal/policy"
	pb "github.com/emresahna/logd/internal/sender"
	"github.com/emresahna/logd/internal/transport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var sender transport.Sender
	if cfg.ServerAddr != "" {
		conn, err := grpc.NewClient(
			cfg.ServerAddr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			log.Fatalf("failed to connect to server: %v", err)
		}
		defer conn.Close()
		sender = transport.NewGRPCSender(pb.NewLogServiceClient(conn))
	} else {
		log.Println("SERVER_ADDR not set, writing records to stdout")
		sender = transport.NewWriterSender(os.Stdout)
	}

	diag := diagnostics.New()
	batcher := pipeline.NewBatcher(
		cfg.Agent.BatchSize,
		cfg.Agent.FlushInterval,
		cfg.Agent.MaxQueue,
		sender,
		diag,
	)

	enricher, err := enrichment.New(ctx, cfg.Agent.K8sEnrich, cfg.Agent.NodeName)
	if err != nil {
		log.Fatalf("enricher error: %v", err)
	}

	processor := pipeline.NewProcessor(ctx, enricher, batcher)

	writer := listener.New(
		processor,
		listener.WithPolicy(policy.NewHost(cfg.Logd.SecurityEnabled)),
		listener.WithSelfUID(cfg.Logd.SelfUID),
		listener.WithSocketDir(cfg.Logd.SocketDir),
		listener.WithSocketName(cfg.Logd.SocketName),
		listener.WithDiagnostics(diag),
	)

	batcherDone := make(chan struct{})
	go func() {
		batcher.Run(ctx)
		close(batcherDone)
	}()
	go diagnostics.StartReporter(ctx, diag, cfg.Agent.DiagnosticsInterval)

	if !writer.Start() {
		log.Fatalf("failed to start %s listener: %v", cfg.Logd.SocketName, writer.Err())
	}
	log.Printf("listening for log writes on fd %d", writer.Socket())

	<-ctx.Done()
	_ = writer.Close()
	<-batcherDone
	log.Println("logd shutting down")
}
