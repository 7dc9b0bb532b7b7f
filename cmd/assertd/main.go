package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clinassert/assertd/assertion"
	"github.com/clinassert/assertd/internal/config"
	"github.com/clinassert/assertd/internal/logger"
	"github.com/clinassert/assertd/internal/server"
)

const version = "assertd v0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "assertd",
	Short: "Clinical assertion classification service",
	Long: `assertd serves real-time classification of the assertion status
(PRESENT, ABSENT, CONDITIONAL) of sentences in clinical text, backed by
a pre-trained sequence-classification model running on ONNX Runtime.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "assertd: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	registry := assertion.NewRegistry(assertion.Config{
		ModelID:       cfg.Model.ID,
		ModelPath:     cfg.Model.Path,
		TokenizerPath: cfg.Model.TokenizerPath,
		OrtLibrary:    cfg.Model.OrtLibrary,
		MaxSeqLen:     cfg.Model.MaxSeqLen,
		ForceCPU:      cfg.Model.ForceCPU,
		CacheTTL:      cfg.Model.CacheTTL,
	}, log)
	svc := assertion.NewService(registry, log)
	defer func() { _ = svc.Close() }()

	// Warm load at startup. A failure keeps the process alive so the
	// health endpoint can report not-ready; predictions answer 503.
	if _, err := registry.Handle(); err != nil {
		log.Error("model load failed, serving health only", zap.Error(err))
	}

	gin.SetMode(cfg.Server.Mode)
	router := server.NewRouter(svc, log)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
