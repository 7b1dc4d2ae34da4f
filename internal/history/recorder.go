package history

import (
	"go.uber.org/zap"
)

// Recorder appends messages to one transcript. Recording is best effort: a
// broken history DB must never disturb the live session, so every error is
// logged at debug and swallowed.
type Recorder struct {
	db     *DB
	chatID int64
	log    *zap.Logger
}

// NewRecorder opens a new transcript. Returns nil when the transcript could
// not be created; a nil *Recorder is safe to pass around as a disabled
// recorder only through the chat.Recorder interface check in the caller.
func NewRecorder(db *DB, server, contextDesc string, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	chatID, err := db.BeginChat(server, contextDesc)
	if err != nil {
		log.Debug("history disabled", zap.Error(err))
		return nil
	}
	return &Recorder{db: db, chatID: chatID, log: log}
}

func (r *Recorder) Record(role, text string) {
	if err := r.db.AddMessage(r.chatID, role, text); err != nil {
		r.log.Debug("history write failed", zap.Error(err))
	}
}
