package smash

import (
	"os"
	"time"

	"github.com/google/uuid"
)

// Session is a purely diagnostic record of one shell invocation, stamped
// into the startup log line. Nothing in job-control semantics reads it.
type Session struct {
	StartTime time.Time
	UserID    int
	UserName  string
	MachineID string
	SessionID string
}

// NewSession captures the current environment and mints a session id.
func NewSession() *Session {
	return &Session{
		StartTime: time.Now(),
		UserID:    os.Getuid(),
		UserName:  os.Getenv("USER"),
		MachineID: os.Getenv("HOSTNAME"),
		SessionID: uuid.New().String(),
	}
}
