package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Wccurate/NLP-Frontend/internal/adapters/api"
	"github.com/Wccurate/NLP-Frontend/internal/adapters/loader"
	"github.com/Wccurate/NLP-Frontend/internal/adapters/render"
	"github.com/Wccurate/NLP-Frontend/internal/config"
	"github.com/Wccurate/NLP-Frontend/internal/domain/usecases"
	"github.com/Wccurate/NLP-Frontend/internal/infrastructure/tui"
	"github.com/Wccurate/NLP-Frontend/internal/logger"
)

var (
	configPath string
	baseURL    string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Terminal client for the RAG question-answering backend",
	Long: `ragchat talks to a retrieval-augmented QA backend over HTTP.

Run without arguments to start the interactive chat. Past turns are loaded
from the backend; attach a document with /attach <path> and ask about it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("base-url") {
			cfg.APIBaseURL = baseURL
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}

		log, err = logger.New(logger.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
		if err != nil {
			return err
		}
		log.Debug("config loaded",
			zap.String("api_base_url", cfg.APIBaseURL),
			zap.String("origin", cfg.Origin),
			zap.Int("history_limit", cfg.HistoryLimit))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ragchat.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "backend base address (default /api on the configured origin)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(healthCmd, historyCmd, askCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newClient() *api.Client {
	return api.NewClient(cfg.APIBaseURL,
		api.WithOrigin(cfg.Origin),
		api.WithLogger(log.Named("api")),
	)
}

func newRenderer() (*render.Renderer, error) {
	return render.New(render.Options{WordWrap: cfg.Display.WordWrap, Style: cfg.Display.Style})
}

func newLoader() *loader.FileLoader {
	return loader.NewFileLoader(nil, loader.DefaultMaxSize)
}

func offlineMessage() string {
	return fmt.Sprintf("Backend health check failed. Ensure the API is running on %s.", cfg.Origin)
}

func newConversation(backend *api.Client, opts ...usecases.ConversationOption) *usecases.Conversation {
	base := []usecases.ConversationOption{
		usecases.WithHistoryLimit(cfg.HistoryLimit),
		usecases.WithOfflineMessage(offlineMessage()),
		usecases.WithConversationLogger(log.Named("conversation")),
	}
	return usecases.NewConversation(backend, append(base, opts...)...)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	notifier := tui.NewNotifier()
	conv := newConversation(newClient(), usecases.OnChange(notifier.Notify))

	model := tui.NewModel(cmd.Context(), tui.Options{
		Conversation: conv,
		Loader:       newLoader(),
		Renderer:     renderer,
		Notifier:     notifier,
		Logger:       log.Named("tui"),
	})

	log.Info("interactive session started")
	err = tui.Run(cmd.Context(), model)
	if err != nil && errors.Is(cmd.Context().Err(), context.Canceled) {
		return nil
	}
	return err
}
