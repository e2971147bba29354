package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/controlplane/internal/app"
	"github.com/allisson/controlplane/internal/config"
)

// RunRotateSecret rotates a managed secret from the command line. With
// immediate set, the previous active version is revoked right away instead
// of entering its grace window.
func RunRotateSecret(ctx context.Context, name string, immediate bool, io IOTuple) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	vaultUseCase, err := container.VaultUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize vault use case: %w", err)
	}

	rotate := vaultUseCase.Rotate
	if immediate {
		rotate = vaultUseCase.EmergencyRotate
	}

	secret, err := rotate(ctx, name, "cli")
	if err != nil {
		return fmt.Errorf("failed to rotate secret: %w", err)
	}

	fmt.Fprintf(io.Writer, "Secret %q rotated to version %d.\n", name, secret.Version)

	logger.Info("secret rotated",
		slog.String("name", name),
		slog.Uint64("version", uint64(secret.Version)),
		slog.Bool("immediate", immediate),
	)

	return nil
}
