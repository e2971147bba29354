package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
	"github.com/allisson/controlplane/internal/app"
	"github.com/allisson/controlplane/internal/config"
)

// RunCreateClient creates a new API client with the given role and prints the
// client ID and its plain secret in either text or JSON format. The plain
// secret is only shown once; the server stores an Argon2id hash.
//
// Requirements: Database must be migrated and accessible.
func RunCreateClient(
	ctx context.Context,
	name string,
	roleStr string,
	isActive bool,
	format string,
	io IOTuple,
) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	role := accessDomain.Role(roleStr)
	if !role.IsValid() {
		return fmt.Errorf("invalid role: %s (valid options: admin, operator, reader)", roleStr)
	}

	clientUseCase, err := container.ClientUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize client use case: %w", err)
	}

	logger.Info("creating new client",
		slog.String("name", name),
		slog.String("role", roleStr),
	)

	output, err := clientUseCase.CreateClient(ctx, &accessDomain.CreateClientInput{
		Name:     name,
		Role:     role,
		IsActive: isActive,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	if format == "json" {
		result := map[string]string{
			"client_id":     output.ID.String(),
			"client_secret": output.PlainSecret,
		}
		encoder := json.NewEncoder(io.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
	} else {
		fmt.Fprintln(io.Writer, "Client created successfully!")
		fmt.Fprintln(io.Writer)
		fmt.Fprintf(io.Writer, "Client ID:     %s\n", output.ID.String())
		fmt.Fprintf(io.Writer, "Client Secret: %s\n", output.PlainSecret)
		fmt.Fprintln(io.Writer)
		fmt.Fprintln(io.Writer, "Store the secret securely. It cannot be retrieved again.")
	}

	logger.Info("client created successfully",
		slog.String("client_id", output.ID.String()),
		slog.String("name", name),
		slog.Bool("is_active", isActive),
	)

	return nil
}
