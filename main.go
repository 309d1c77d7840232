package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource/mssql"
	_ "github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource/mysql"
	_ "github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource/oracle"
	_ "github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource/postgres"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/config"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/knowledge"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/logging"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/mcp"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/mcp/tools"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/middleware"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	modeSync    = "sync"
	modeExtract = "extract"
	modeServe   = "serve"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file; environment only when the default file is absent")
	mode := flag.String("mode", modeSync, "sync | extract | serve")
	listen := flag.String("listen", "", "serve mode: address for streamable HTTP at /mcp; stdio when empty")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *mode, *listen, cfg, logger); err != nil {
		logger.Error("Run failed", zap.String("mode", *mode), zap.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}

// loadConfig reads path when it exists. A missing default file falls back to
// environment variables only; a missing explicit file is an error.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && path == config.DefaultPath {
			return config.LoadFromEnv(Version)
		}
		return nil, err
	}
	return config.Load(path, Version)
}

func run(ctx context.Context, mode, listen string, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting dbschema-knowledge",
		zap.String("version", cfg.Version),
		zap.String("mode", mode))

	switch mode {
	case modeSync:
		return runSync(ctx, cfg, logger)
	case modeExtract:
		return runExtract(ctx, cfg, logger)
	case modeServe:
		return runServe(ctx, listen, cfg, logger)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func sourceSpec(cfg *config.Config) datasource.ConnectionSpec {
	return datasource.ConnectionSpec{
		Dialect:        cfg.Source.Type,
		Host:           cfg.Source.Host,
		Port:           cfg.Source.Port,
		Username:       cfg.Source.Username,
		Password:       cfg.Source.Password,
		Database:       cfg.Source.Database,
		Schema:         cfg.Source.Schema,
		ConnectRetries: cfg.Source.ConnectRetries,
	}
}

func runSync(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := knowledge.ValidateCredentials(ctx, cfg.Knowledge.APIURL, cfg.Knowledge.APIKey, logger); err != nil {
		return err
	}

	svc := services.NewDatabaseToKnowledgeService(cfg.Knowledge.APIURL, cfg.Knowledge.APIKey, logger)
	datasetID, err := svc.DatabaseToKnowledge(ctx, services.Request{
		Source:     sourceSpec(cfg),
		TableNames: cfg.Source.TableNames,
		DatasetID:  cfg.Sync.DatasetID,
		EmbeddingModel: knowledge.ModelRef{
			Model:    cfg.Knowledge.EmbeddingModel,
			Provider: cfg.Knowledge.EmbeddingProvider,
		},
		RerankModel: knowledge.ModelRef{
			Model:    cfg.Knowledge.RerankModel,
			Provider: cfg.Knowledge.RerankProvider,
		},
	})
	if err != nil {
		return err
	}

	fmt.Println(datasetID)
	return nil
}

func runExtract(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.ValidateSource(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	svc := services.NewDatabaseToKnowledgeService(cfg.Knowledge.APIURL, cfg.Knowledge.APIKey, logger)
	schema, err := svc.Extract(ctx, sourceSpec(cfg), cfg.Source.TableNames)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(schema); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return enc.Close()
}

func runServe(ctx context.Context, listen string, cfg *config.Config, logger *zap.Logger) error {
	if err := knowledge.ValidateCredentials(ctx, cfg.Knowledge.APIURL, cfg.Knowledge.APIKey, logger); err != nil {
		return err
	}

	svc := services.NewDatabaseToKnowledgeService(cfg.Knowledge.APIURL, cfg.Knowledge.APIKey, logger)

	srv := mcp.NewServer("dbschema-knowledge", cfg.Version, logger)
	tools.RegisterHealthTool(srv.MCP(), cfg.Version)
	tools.RegisterDatabaseToKnowledgeTool(srv.MCP(), svc, logger)

	if listen == "" {
		return srv.ServeStdio(ctx, os.Stdin, os.Stdout)
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", middleware.RequestLogger(logger.Named("http"))(srv.NewStreamableHTTPServer()))
	httpServer := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving MCP over HTTP", zap.String("addr", listen))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}
