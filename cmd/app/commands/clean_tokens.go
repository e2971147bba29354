package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/controlplane/internal/app"
	"github.com/allisson/controlplane/internal/config"
)

// RunCleanTokens deletes bearer tokens that have already expired. Expired
// tokens are rejected at authentication regardless; this reclaims storage.
func RunCleanTokens(ctx context.Context, io IOTuple) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	tokenUseCase, err := container.TokenUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize token use case: %w", err)
	}

	deleted, err := tokenUseCase.CleanExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean expired tokens: %w", err)
	}

	fmt.Fprintf(io.Writer, "Deleted %d expired tokens.\n", deleted)

	logger.Info("expired tokens cleaned", slog.Int64("deleted", deleted))

	return nil
}
