package handle

import "log/slog"

// LogReporter is an ErrorReporter backed by structured logging, the ambient
// stack's stand-in for the original's process-wide last-error slot.
type LogReporter struct {
	log   *slog.Logger
	level int // debug_level (spec §6): traces emit only when > 1
}

// NewLogReporter builds a LogReporter. A nil logger falls back to
// slog.Default().
func NewLogReporter(log *slog.Logger, debugLevel int) *LogReporter {
	if log == nil {
		log = slog.Default()
	}
	return &LogReporter{log: log, level: debugLevel}
}

func (r *LogReporter) SetError(err error) {
	if err == nil {
		return
	}
	r.log.Error("registry operation failed", "err", err)
}

// FileError logs err as an OS-originated failure and returns it unchanged,
// standing in for file_set_error's translation of the last OS error into
// the core's own error taxonomy.
func (r *LogReporter) FileError(err error) error {
	if err == nil {
		return nil
	}
	r.log.Error("registry file operation failed", "err", err)
	return err
}

// Trace emits a human-readable operation trace when the configured debug
// level is above 1, mirroring the source's `debug_level > 1` dump_path
// tracing (spec §6).
func (r *LogReporter) Trace(op, path string) {
	if r.level <= 1 {
		return
	}
	r.log.Debug("registry trace", "op", op, "path", path)
}
