package main

import (
	"context"

	"jordanella.com/desktop-pilot/internal/script"
)

func registerBuiltins(registry *script.Registry) {
	registry.MustRegister(script.Func("read_screen", readScreen))
}

// readScreen logs every word recognized on the virtual desktop with its
// global bounds
func readScreen(ctx context.Context, env *script.Env) error {
	result, err := env.Engine.ReadText(ctx, nil)
	if err != nil {
		return err
	}

	for _, word := range result.Words {
		bounds := word.GlobalBounds()
		env.Logger.InfoWithContext(word.Payload.Text, map[string]interface{}{
			"x":          bounds.X,
			"y":          bounds.Y,
			"width":      bounds.Width,
			"height":     bounds.Height,
			"confidence": word.Payload.Confidence,
		})
	}
	return nil
}
