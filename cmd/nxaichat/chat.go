package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/netxms/nxaichat/internal/api"
	"github.com/netxms/nxaichat/internal/chat"
	"github.com/netxms/nxaichat/internal/config"
	"github.com/netxms/nxaichat/internal/console"
	"github.com/netxms/nxaichat/internal/history"
	"github.com/netxms/nxaichat/internal/render"
	"github.com/netxms/nxaichat/internal/store"
)

type chatOptions struct {
	server        string
	port          int
	user          string
	password      string
	node          string
	object        string
	incident      int64
	plain         bool
	insecure      bool
	noSaveSession bool
	clearSession  bool
	debug         bool
}

func runChat(opts chatOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogPath(), opts.debug)
	defer logger.Sync()

	baseURL, err := resolveServerURL(opts, cfg)
	if err != nil {
		return err
	}
	serverKey := store.NormalizeServer(baseURL)

	sessions := store.New(cfg.SessionPath())
	if opts.clearSession {
		if err := sessions.Delete(serverKey); err != nil {
			return err
		}
	}

	client := api.NewClient(baseURL, opts.insecure || cfg.Insecure, logger)

	// Input is shared between the login prompts, the REPL, and question
	// resolution; the same interrupt channel guards all blocking points.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	in := console.NewLineReader(os.Stdin, os.Stdout, sig)

	token, usedStored, err := resolveToken(sessions, client, serverKey, opts, in)
	if err != nil {
		return err
	}
	client.SetToken(token)

	initialContext, err := resolveContext(client, opts)
	if err != nil {
		return err
	}

	plain := opts.plain || cfg.Plain || !term.IsTerminal(int(os.Stdout.Fd()))
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	out := render.New(plain, width)

	var wait chat.WaitFunc
	if plain {
		wait = func(_ string, fn func(context.Context) error) error {
			return console.RunCancelable(sig, fn)
		}
	} else {
		wait = render.Wait
	}

	// Transcript recording is optional; a broken history DB only disables it.
	var recorder chat.Recorder
	if db, err := history.Open(cfg.HistoryDB); err != nil {
		logger.Warn("history unavailable", zap.Error(err))
	} else {
		defer db.Close()
		if r := history.NewRecorder(db, serverKey, initialContext.String(), logger); r != nil {
			recorder = r
		}
	}

	session := chat.NewSession(client, chat.Options{
		Server:   serverKey,
		Context:  initialContext,
		Input:    in,
		Output:   out,
		Wait:     wait,
		Recorder: recorder,
		Logger:   logger,
	})

	if err := session.Start(context.Background()); err != nil {
		if usedStored && errors.Is(err, api.ErrAuth) {
			// The stored token went stale server side; log in again once.
			if err := sessions.Delete(serverKey); err != nil {
				return err
			}
			token, _, err := resolveToken(sessions, client, serverKey, opts, in)
			if err != nil {
				return err
			}
			client.SetToken(token)
			if err := session.Start(context.Background()); err != nil {
				return err
			}
		} else {
			return err
		}
	}
	defer session.Cleanup()

	out.Info(fmt.Sprintf("Connected to %s (chat #%d). Type /help for commands, /quit to exit.",
		serverKey, session.ChatID()))
	return session.Run()
}

// resolveServerURL picks the server from flag, environment, then config, and
// normalizes it to a base URL.
func resolveServerURL(opts chatOptions, cfg *config.Config) (string, error) {
	server := firstNonEmpty(opts.server, os.Getenv("NETXMS_SERVER"), cfg.Server)
	if server == "" {
		return "", errors.New("no server specified (use --server or NETXMS_SERVER)")
	}
	if strings.Contains(server, "://") {
		return server, nil
	}
	port := opts.port
	if port == 0 {
		port = cfg.Port
	}
	if strings.Contains(server, ":") {
		return "https://" + server, nil
	}
	return fmt.Sprintf("https://%s:%d", server, port), nil
}

// resolveToken loads a stored session token or logs in with credentials from
// flags, environment, or interactive prompts. The second return value tells
// the caller the token came from the store and may be stale.
func resolveToken(sessions *store.Store, client *api.Client, serverKey string, opts chatOptions, in *console.LineReader) (string, bool, error) {
	rec, err := sessions.Load(serverKey)
	if err != nil {
		return "", false, err
	}
	if rec != nil {
		return rec.Token, true, nil
	}

	username := firstNonEmpty(opts.user, os.Getenv("NETXMS_USERNAME"))
	if username == "" {
		line, err := in.ReadLine("Login: ")
		if errors.Is(err, console.ErrInterrupted) {
			return "", false, console.ErrInterrupted
		}
		if err != nil {
			return "", false, errors.New("login aborted")
		}
		username = strings.TrimSpace(line)
	}
	password := firstNonEmpty(opts.password, os.Getenv("NETXMS_PASSWORD"))
	if password == "" {
		pw, err := console.ReadPassword("Password: ")
		if err != nil {
			return "", false, err
		}
		password = pw
	}

	token, err := client.Login(context.Background(), username, password)
	if err != nil {
		return "", false, fmt.Errorf("login: %w", err)
	}
	if !opts.noSaveSession {
		if err := sessions.Save(serverKey, token, time.Time{}); err != nil {
			return "", false, err
		}
	}
	return token, false, nil
}

// resolveContext builds the initial chat context from the mutually exclusive
// --node/--object/--incident selectors.
func resolveContext(client *api.Client, opts chatOptions) (chat.Context, error) {
	selectors := 0
	if opts.node != "" {
		selectors++
	}
	if opts.object != "" {
		selectors++
	}
	if opts.incident != 0 {
		selectors++
	}
	if selectors > 1 {
		return chat.Context{}, errors.New("--node, --object and --incident are mutually exclusive")
	}

	switch {
	case opts.incident != 0:
		return chat.IncidentContext(opts.incident), nil

	case opts.node != "":
		obj, err := client.FindObject(context.Background(), opts.node)
		if err != nil {
			return chat.Context{}, fmt.Errorf("find node: %w", err)
		}
		if obj == nil {
			return chat.Context{}, fmt.Errorf("node %q not found", opts.node)
		}
		return chat.ObjectContext(obj.ID, obj.Name), nil

	case opts.object != "":
		if id, err := strconv.ParseInt(opts.object, 10, 64); err == nil && id > 0 {
			return chat.ObjectContext(id, ""), nil
		}
		obj, err := client.FindObject(context.Background(), opts.object)
		if err != nil {
			return chat.Context{}, fmt.Errorf("find object: %w", err)
		}
		if obj == nil {
			return chat.Context{}, fmt.Errorf("object %q not found", opts.object)
		}
		return chat.ObjectContext(obj.ID, obj.Name), nil
	}

	return chat.Context{}, nil
}

// newLogger builds the file-backed logger. The terminal is reserved for the
// chat itself, so logging failures degrade to a no-op logger.
func newLogger(path string, debug bool) *zap.Logger {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{path}
	logCfg.ErrorOutputPaths = []string{path}
	if debug {
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
