package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Wccurate/NLP-Frontend/internal/adapters/filewatcher"
	"github.com/Wccurate/NLP-Frontend/internal/domain/usecases"
)

var (
	historyLimit int
	askFile      string
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is up",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the most recent conversation turns",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var askCmd = &cobra.Command{
	Use:   "ask [text]",
	Short: "Send one question, optionally with a document",
	Long: `Sends a single turn and prints the exchange.

Example:
  ragchat ask "How does my resume look?" --file resume.pdf
  ragchat ask --file resume.pdf`,
	RunE: runAsk,
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Send every document dropped into a folder",
	Long: `Watches a folder and sends each new .pdf, .docx or .txt file as an
attachment with no text, one at a time, printing every exchange.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "number of turns (default from config)")
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "document to attach (.pdf, .docx, .txt)")
}

func runHealth(cmd *cobra.Command, args []string) error {
	client := newClient()
	ok, err := client.CheckHealth(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s: %w", offlineMessage(), err)
	}
	if !ok {
		return errors.New(offlineMessage())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok (%s)\n", client.BaseURL())
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit := cfg.HistoryLimit
	if historyLimit > 0 {
		limit = historyLimit
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}
	entries, err := newClient().FetchHistory(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("%s: %w", usecases.MsgHistoryLoadFailed, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderer.Log(usecases.State{Messages: usecases.FromHistory(entries)}))
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	renderer, err := newRenderer()
	if err != nil {
		return err
	}
	conv := newConversation(newClient())

	if err := conv.SetDraft(strings.Join(args, " ")); err != nil {
		return err
	}
	if askFile != "" {
		file, err := newLoader().Load(cmd.Context(), askFile)
		if err != nil {
			return err
		}
		if err := conv.Attach(file); err != nil {
			return err
		}
	}

	if err := conv.Submit(cmd.Context()); err != nil {
		log.Warn("ask failed", zap.Error(err))
		return errors.New(conv.Snapshot().Banners.SendError)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderer.Log(conv.Snapshot()))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := cfg.Watch.Dir
	if len(args) == 1 {
		dir = args[0]
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}
	client := newClient()
	files := newLoader()

	if ok, err := client.CheckHealth(cmd.Context()); err != nil || !ok {
		fmt.Fprintln(cmd.ErrOrStderr(), offlineMessage())
	}

	watcher, err := filewatcher.NewFSNotifyWatcher(files.SupportedExtensions(), log.Named("watcher"))
	if err != nil {
		return err
	}
	defer watcher.Stop()

	drop := usecases.NewDropFolder(watcher, files, newConversation(client), cfg.Watch.SettleDelay, log.Named("dropfolder"))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching %s for %s\n", dir, strings.Join(files.SupportedExtensions(), ", "))
	err = drop.Run(cmd.Context(), dir, func(res usecases.DropResult) {
		if res.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", res.Path, res.Err)
			return
		}
		fmt.Fprintf(out, "%s\n%s\n\n%s\n\n", res.Path, renderer.Message(res.User), renderer.Message(res.Assistant))
	})
	if err != nil && cmd.Context().Err() == nil {
		return err
	}
	return nil
}
