package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/netxms/nxaichat/internal/render"
)

const commandPrefix = "/"

// errQuit signals a graceful exit request from /quit and friends. It is a
// control-flow signal, not a failure.
var errQuit = errors.New("quit")

const helpText = `Commands:
  /object <name>    set object context (no argument clears it)
  /incident <id>    set incident context (no argument clears it)
  /status           show server, chat id and context
  /clear            clear the conversation history on the server
  /help             show this help
  /quit             exit (also /exit, /q)`

// dispatch routes one input line. It returns true when the line was consumed
// as a command; false means the caller should send it as a chat message.
// Recognized commands always count as handled, even when they fail
// internally. The only error returned is errQuit.
func (s *Session) dispatch(line string) (bool, error) {
	if !strings.HasPrefix(line, commandPrefix) {
		return false, nil
	}
	fields := strings.Fields(line[len(commandPrefix):])
	if len(fields) == 0 {
		s.out.Error("Unknown command, type /help for a list")
		return true, nil
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	switch name {
	case "help":
		s.out.Info(helpText)
	case "quit", "exit", "q":
		return true, errQuit
	case "clear":
		s.clearChat()
	case "object":
		s.setObjectContext(args)
	case "incident":
		s.setIncidentContext(args)
	case "status":
		s.showStatus()
	default:
		s.out.Error(fmt.Sprintf("Unknown command /%s, type /help for a list", name))
	}
	return true, nil
}

func (s *Session) clearChat() {
	if err := s.client.ClearChat(context.Background(), s.chatID); err != nil {
		s.out.Error("Failed to clear chat: " + err.Error())
		return
	}
	s.out.Info("Chat history cleared")
}

func (s *Session) setObjectContext(args []string) {
	if len(args) == 0 {
		if s.context.Kind == ContextObject {
			s.context = Context{}
			s.contextSent = false
			s.out.Info("Object context cleared")
		} else {
			s.out.Error("Usage: /object <name>")
		}
		return
	}
	name := strings.Join(args, " ")
	obj, err := s.client.FindObject(context.Background(), name)
	if err != nil {
		s.out.Error("Object lookup failed: " + err.Error())
		return
	}
	if obj == nil {
		s.out.Error(fmt.Sprintf("Object %q not found", name))
		return
	}
	s.context = ObjectContext(obj.ID, obj.Name)
	s.contextSent = false
	s.out.Info(fmt.Sprintf("Context set to object %s (#%d)", obj.Name, obj.ID))
}

func (s *Session) setIncidentContext(args []string) {
	if len(args) == 0 {
		if s.context.Kind == ContextIncident {
			s.context = Context{}
			s.contextSent = false
			s.out.Info("Incident context cleared")
		} else {
			s.out.Error("Usage: /incident <id>")
		}
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		s.out.Error("Incident id must be a positive number")
		return
	}
	s.context = IncidentContext(id)
	s.contextSent = false
	s.out.Info(fmt.Sprintf("Context set to incident #%d", id))
}

func (s *Session) showStatus() {
	contextDesc := s.context.String()
	if s.context.Kind != ContextNone && s.contextSent {
		contextDesc += " (sent)"
	}
	s.out.Status([]render.Field{
		{Label: "Server", Value: s.server},
		{Label: "Chat", Value: fmt.Sprintf("#%d", s.chatID)},
		{Label: "Context", Value: contextDesc},
	})
}
