package logger

import "log/slog"

// Error records err under the key "error". A nil error yields an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component tags a record with the emitting subsystem.
func Component(name string) slog.Attr { return slog.String("component", name) }

func Email(email string) slog.Attr { return slog.String("email", email) }

func Role(role string) slog.Attr { return slog.String("role", role) }

func UserID(id string) slog.Attr { return slog.String("user_id", id) }
