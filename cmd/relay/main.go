package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"relay/internal/app"
	relayclient "relay/internal/client"
	"relay/internal/config"
	"relay/internal/logging"
	"relay/internal/store"
)

const usageText = `relay mirrors agent sessions from a relay server into a terminal UI.

Usage:
  relay <command> [flags]

Commands:
  ui       run the terminal UI
  ps       list sessions
  send     send a message to a session
  help     show help

Flags:
  -h, --help   show help

Examples:
  relay ui
  relay ps
  relay send <session-id> "run the tests"
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		exitOnErr("ui", runUI(nil))
		return
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	case "ui":
		exitOnErr("ui", runUI(args[1:]))
	case "ps":
		exitOnErr("ps", runPS(args[1:]))
	case "send":
		exitOnErr("send", runSend(args[1:]))
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func exitOnErr(label string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}

func runUI(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = repo.Close()
	}()

	inbox := app.NewPromptInbox()
	st := store.New(store.Options{
		Logger:      logger.With(logging.F("component", "store")),
		MaxMessages: cfg.MaxMessages(),
		Source:      client.Events,
		Prompts:     inbox.Handlers(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := st.Attach(ctx); err != nil {
		return fmt.Errorf("connect event stream: %w", err)
	}
	defer st.Close()

	loadCtx, cancel := context.WithTimeout(ctx, 4*time.Second)
	appState, err := repo.AppState().Load(loadCtx)
	cancel()
	if err != nil {
		logger.Warn("app state load failed", logging.F("err", err))
	}
	opts := app.Options{
		API:      app.NewClientAPI(client),
		Store:    st,
		Repo:     repo,
		Logger:   logger.With(logging.F("component", "ui")),
		Inbox:    inbox,
		PageSize: cfg.PageSize(),
	}
	if appState != nil {
		opts.AppState = *appState
	}
	return app.Run(opts)
}

func runPS(args []string) error {
	fs := flag.NewFlagSet("ps", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client, err := newClient(cfg, logging.Nop())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
	defer cancel()
	sessions, err := client.ListSessions(ctx)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTITLE\tDIRECTORY\tUPDATED")
	for _, session := range sessions {
		updated := "-"
		if session.UpdatedAt != nil {
			updated = session.UpdatedAt.Local().Format(time.RFC3339)
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", session.ID, session.Title, session.Directory, updated)
	}
	return writer.Flush()
}

func runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errors.New("send requires a session id and a message")
	}
	id := fs.Arg(0)
	text := fs.Arg(1)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client, err := newClient(cfg, logging.Nop())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	resp, err := client.SendMessage(ctx, id, relayclient.SendMessageRequest{Text: text})
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, resp.MessageID)
	return nil
}

func newClient(cfg config.Config, logger logging.Logger) (*relayclient.Client, error) {
	token, err := loadToken()
	if err != nil {
		return nil, err
	}
	client := relayclient.NewWithBaseURL(cfg.ServerBaseURL(), token)
	client.SetLogger(logger.With(logging.F("component", "client")))
	return client, nil
}

func loadToken() (string, error) {
	tokenPath, err := config.TokenPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func openRepository(cfg config.Config) (store.Repository, error) {
	statePath, err := config.StatePath()
	if err != nil {
		return nil, err
	}
	sessionsMetaPath, err := config.SessionsMetaPath()
	if err != nil {
		return nil, err
	}
	dbPath, err := config.DBPath()
	if err != nil {
		return nil, err
	}
	return store.OpenRepository(store.RepositoryPaths{
		AppStatePath:    statePath,
		SessionMetaPath: sessionsMetaPath,
		DBPath:          dbPath,
	}, cfg.StoreBackend())
}

func openLogger(cfg config.Config) (logging.Logger, func(), error) {
	logPath, err := config.LogPath()
	if err != nil {
		return nil, nil, err
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(file, logging.ParseLevel(cfg.LogLevel()))
	return logger, func() { _ = file.Close() }, nil
}
