// Package chat implements the interactive session: the REPL loop, slash
// command dispatch, and resolution of server-posed questions.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/netxms/nxaichat/internal/api"
	"github.com/netxms/nxaichat/internal/console"
	"github.com/netxms/nxaichat/internal/render"
)

// Client is the subset of the API client the session needs. Satisfied by
// *api.Client; tests substitute a fake.
type Client interface {
	CreateChat(ctx context.Context, incidentID, objectID int64) (int64, error)
	SendMessage(ctx context.Context, chatID int64, message string, chatContext map[string]int64) (*api.ChatResponse, error)
	AnswerQuestion(ctx context.Context, chatID, questionID int64, positive bool, option int) error
	ClearChat(ctx context.Context, chatID int64) error
	DeleteChat(ctx context.Context, chatID int64) error
	FindObject(ctx context.Context, name string) (*api.Object, error)
}

// Input reads one line of user input. Returns console.ErrInterrupted when
// the user interrupts the read, io.EOF when input ends.
type Input interface {
	ReadLine(prompt string) (string, error)
}

// WaitFunc runs fn while indicating progress; cancelling the context aborts
// the call. The styled renderer supplies a spinner, plain output a direct
// call guarded by the interrupt signal.
type WaitFunc func(message string, fn func(context.Context) error) error

// Recorder receives a copy of every completed exchange for local history.
// A nil Recorder disables recording.
type Recorder interface {
	Record(role, text string)
}

// Session drives one interactive chat. It is strictly single threaded: each
// input line is fully processed, including any nested question exchange,
// before the next one is read.
type Session struct {
	client   Client
	in       Input
	out      render.Renderer
	resolver *Resolver
	wait     WaitFunc
	rec      Recorder
	log      *zap.Logger

	server      string
	chatID      int64
	context     Context
	contextSent bool
	started     bool
}

type Options struct {
	Server   string
	Context  Context
	Input    Input
	Output   render.Renderer
	Wait     WaitFunc
	Recorder Recorder
	Logger   *zap.Logger
}

func NewSession(client Client, opts Options) *Session {
	wait := opts.Wait
	if wait == nil {
		wait = func(_ string, fn func(context.Context) error) error {
			return fn(context.Background())
		}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		client:   client,
		in:       opts.Input,
		out:      opts.Output,
		resolver: NewResolver(client, opts.Input, opts.Output),
		wait:     wait,
		rec:      opts.Recorder,
		log:      log,
		server:   opts.Server,
		context:  opts.Context,
	}
}

// Start creates the server-side chat, scoped to the initial context when one
// was given. Must be called exactly once before Run.
func (s *Session) Start(ctx context.Context) error {
	if s.started {
		return errors.New("session already started")
	}
	var incidentID, objectID int64
	switch s.context.Kind {
	case ContextIncident:
		incidentID = s.context.ID
	case ContextObject:
		objectID = s.context.ID
	}
	id, err := s.client.CreateChat(ctx, incidentID, objectID)
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	s.chatID = id
	s.started = true
	// A creation-time context already scopes the chat server side; it is
	// not attached again to the first message.
	if s.context.Kind != ContextNone {
		s.contextSent = true
	}
	s.log.Info("chat created",
		zap.Int64("chatId", id),
		zap.String("server", s.server),
		zap.String("context", s.context.String()))
	return nil
}

func (s *Session) ChatID() int64 { return s.chatID }

// Run is the REPL loop. It returns when the user quits or input ends; an
// interrupted read just re-displays the prompt.
func (s *Session) Run() error {
	if !s.started {
		return errors.New("session not started")
	}
	for {
		line, err := s.in.ReadLine("> ")
		if errors.Is(err, console.ErrInterrupted) {
			continue
		}
		if err != nil {
			// End of input quits as gracefully as /quit.
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		handled, err := s.dispatch(line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if handled {
			continue
		}
		s.send(line)
	}
}

// send posts one chat message, renders the reply, and resolves a pending
// question synchronously before returning to the loop. Errors are reported
// per turn, never fatal.
func (s *Session) send(message string) {
	var extra map[string]int64
	if s.context.Kind != ContextNone && !s.contextSent {
		extra = s.context.payload()
	}

	var resp *api.ChatResponse
	err := s.wait("Waiting for response...", func(ctx context.Context) error {
		r, err := s.client.SendMessage(ctx, s.chatID, message, extra)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.out.Info("Request cancelled")
			return
		}
		s.out.Error(err.Error())
		s.log.Warn("send failed", zap.Int64("chatId", s.chatID), zap.Error(err))
		return
	}

	if extra != nil {
		// Context is attached to exactly one message and then kept for
		// display only.
		s.contextSent = true
	}

	s.record("user", message)
	if resp.Response != "" {
		s.out.Response(resp.Response)
		s.record("assistant", resp.Response)
	}
	if resp.PendingQuestion != nil {
		s.record("question", resp.PendingQuestion.Text)
		if outcome := s.resolver.Resolve(context.Background(), s.chatID, resp.PendingQuestion); outcome != "" {
			s.record("answer", outcome)
		}
	}
}

func (s *Session) record(role, text string) {
	if s.rec != nil {
		s.rec.Record(role, text)
	}
}

// Cleanup deletes the server-side chat. Best effort: errors are logged and
// swallowed so shutdown never blocks on the server.
func (s *Session) Cleanup() {
	if s.chatID == 0 {
		return
	}
	if err := s.client.DeleteChat(context.Background(), s.chatID); err != nil {
		s.log.Debug("delete chat failed", zap.Int64("chatId", s.chatID), zap.Error(err))
	}
	s.chatID = 0
	s.started = false
}
