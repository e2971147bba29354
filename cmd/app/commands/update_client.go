package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
	"github.com/allisson/controlplane/internal/app"
	"github.com/allisson/controlplane/internal/config"
)

// RunUpdateClient updates an existing API client's name, role, and active
// status. Deactivating a client immediately blocks authentication with any of
// its outstanding tokens.
func RunUpdateClient(
	ctx context.Context,
	idStr string,
	name string,
	roleStr string,
	isActive bool,
	io IOTuple,
) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	clientID, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid client id: %w", err)
	}

	role := accessDomain.Role(roleStr)
	if !role.IsValid() {
		return fmt.Errorf("invalid role: %s (valid options: admin, operator, reader)", roleStr)
	}

	clientUseCase, err := container.ClientUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize client use case: %w", err)
	}

	if err := clientUseCase.UpdateClient(ctx, clientID, name, role, isActive); err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	fmt.Fprintf(io.Writer, "Client %s updated successfully.\n", clientID)

	logger.Info("client updated successfully",
		slog.String("client_id", clientID.String()),
		slog.String("name", name),
		slog.String("role", roleStr),
		slog.Bool("is_active", isActive),
	)

	return nil
}
