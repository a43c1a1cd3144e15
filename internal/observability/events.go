package observability

import (
	"github.com/sirupsen/logrus"
	"github.com/snapsweep/media-service/internal/utils"
)

// Named events emitted by the commit pipeline.
const (
	EventPreviewShown       = "commit_preview_shown"
	EventConfirmed          = "commit_confirmed"
	EventCompleted          = "commit_completed"
	EventError              = "commit_error"
	EventBlockedPermissions = "commit_blocked_permissions"
)

// Emitter is a fire-and-forget sink for named events with structured
// payloads. Emission must never fail the caller.
type Emitter interface {
	Emit(event string, fields map[string]any)
}

// LogEmitter writes events through the service logger. It is the default
// sink; tests substitute a capturing fake.
type LogEmitter struct{}

func NewLogEmitter() *LogEmitter {
	return &LogEmitter{}
}

func (e *LogEmitter) Emit(event string, fields map[string]any) {
	utils.Logger.WithFields(logrus.Fields(fields)).Info(event)
}
