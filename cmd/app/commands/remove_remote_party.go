package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	partyDomain "github.com/allisson/ocpi/internal/party/domain"
	partyUseCase "github.com/allisson/ocpi/internal/party/usecase"
)

// RunRemoveRemoteParty removes the party id, or every party when all is set.
// Removing an unknown id is reported as a no-op.
func RunRemoveRemoteParty(
	ctx context.Context,
	registry partyUseCase.Registry,
	logger *slog.Logger,
	writer io.Writer,
	id string,
	all bool,
	format string,
) error {
	id = strings.ToUpper(strings.TrimSpace(id))
	if (id == "") == !all {
		return errors.New("exactly one of --id or --all is required")
	}

	var (
		result partyDomain.Result
		err    error
	)
	if all {
		logger.Info("removing all remote parties")
		result, err = registry.RemoveAll(ctx)
		id = "*"
	} else {
		logger.Info("removing remote party", slog.String("id", id))
		result, err = registry.Remove(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("failed to remove remote party: %w", err)
	}
	if !result.OK() {
		return fmt.Errorf("failed to remove remote party: %s", result.Message)
	}

	return outputResult(writer, id, result, format)
}
