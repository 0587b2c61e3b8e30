package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyKind       = "kind"
	KeyDest       = "dest"
	KeySource     = "source"
	KeyTemplate   = "template"
	KeyKey        = "key"
	KeyCount      = "count"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Dest(d string) slog.Attr         { return slog.String(KeyDest, d) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Template(t string) slog.Attr     { return slog.String(KeyTemplate, t) }
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
