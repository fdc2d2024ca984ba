package errors

import (
	"github.com/zsiec/abxclient/internal/logger"
)

// Handler logs protocol errors at a level that matches their kind.
type Handler struct {
	logger logger.Logger
}

// NewHandler creates a new error handler.
func NewHandler(l logger.Logger) *Handler {
	return &Handler{logger: l}
}

// Handle logs err with msg and returns its kind. Malformed or short records
// are warnings; connection, store and internal failures are errors.
func (h *Handler) Handle(err error, msg string, fields map[string]interface{}) Kind {
	kind := Classify(err)
	if kind == "" {
		return kind
	}

	entry := h.logger.WithField("error_kind", string(kind))
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry = entry.WithError(err)

	switch kind {
	case KindEndOfStream:
		entry.Debug(msg)
	case KindDecode, KindTruncated, KindCanceled:
		entry.Warn(msg)
	default:
		entry.Error(msg)
	}
	return kind
}
