package input

import (
	"context"
	"strings"

	"jordanella.com/desktop-pilot/internal/apperr"
	"jordanella.com/desktop-pilot/internal/logging"
)

// Keyboard sends key presses and text to a Sink
type Keyboard struct {
	sink   Sink
	logger *logging.Logger
}

// NewKeyboard creates a keyboard over sink
func NewKeyboard(sink Sink, logger *logging.Logger) *Keyboard {
	return &Keyboard{sink: sink, logger: logger}
}

// Press taps key while holding modifiers. Modifiers are released in reverse
// order even when a press fails.
func (k *Keyboard) Press(ctx context.Context, key string, modifiers ...string) (err error) {
	if strings.TrimSpace(key) == "" {
		return apperr.InvalidArgument("Press", "key must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return apperr.Canceled("Press", err)
	}

	held := make([]string, 0, len(modifiers))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			if upErr := k.sink.KeyUp(held[i]); upErr != nil && err == nil {
				err = apperr.OperationFailed("Press", upErr, "failed to release %s", held[i])
			}
		}
	}()

	for _, mod := range modifiers {
		if err := k.sink.KeyDown(mod); err != nil {
			return apperr.OperationFailed("Press", err, "failed to hold %s", mod)
		}
		held = append(held, mod)
	}

	if err := k.sink.KeyDown(key); err != nil {
		return apperr.OperationFailed("Press", err, "failed to press %s", key)
	}
	if err := k.sink.KeyUp(key); err != nil {
		return apperr.OperationFailed("Press", err, "failed to release %s", key)
	}

	k.logger.DebugWithContext("key pressed", map[string]interface{}{
		"key":       key,
		"modifiers": strings.Join(modifiers, "+"),
	})
	return nil
}

// Type enters text, natively when the sink supports it and rune by rune
// otherwise. Cancellation is checked between runes.
func (k *Keyboard) Type(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Canceled("Type", err)
	}

	if typer, ok := k.sink.(TextTyper); ok {
		if err := typer.TypeText(text); err != nil {
			return apperr.OperationFailed("Type", err, "failed to type %d characters", len(text))
		}
		return nil
	}

	for _, r := range text {
		if err := ctx.Err(); err != nil {
			return apperr.Canceled("Type", err)
		}
		key := string(r)
		if err := k.sink.KeyDown(key); err != nil {
			return apperr.OperationFailed("Type", err, "failed to press %q", key)
		}
		if err := k.sink.KeyUp(key); err != nil {
			return apperr.OperationFailed("Type", err, "failed to release %q", key)
		}
	}
	return nil
}
