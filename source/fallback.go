package source

import (
	"context"
	"fmt"
	"image"
	"log/slog"
)

// Result is the outcome of LoadWithFallback.
type Result struct {
	Image   image.Image
	Locator string // Locator that produced Image
	Primary error  // Failure of the primary locator, if the fallback was used
}

// LoadWithFallback loads primary and, if that fails, fallback once. The
// fallback is skipped when it is empty or the same as primary.
func LoadWithFallback(ctx context.Context, l Loader, primary, fallback string) (Result, error) {
	img, err := l.Load(ctx, primary)
	if err == nil {
		return Result{Image: img, Locator: primary}, nil
	}
	if ctx.Err() != nil || fallback == "" || fallback == primary {
		return Result{}, err
	}

	slog.Warn("image source failed, trying fallback",
		"source", Describe(primary),
		"fallback", Describe(fallback),
		"error", err,
	)

	img, ferr := l.Load(ctx, fallback)
	if ferr != nil {
		return Result{}, fmt.Errorf("fallback %s: %w (primary: %v)", Describe(fallback), ferr, err)
	}
	return Result{Image: img, Locator: fallback, Primary: err}, nil
}
