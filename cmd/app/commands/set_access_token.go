package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	accessTokenDomain "github.com/allisson/ocpi/internal/accesstoken/domain"
	accessTokenUseCase "github.com/allisson/ocpi/internal/accesstoken/usecase"
)

type accessTokenOutput struct {
	Token   string                         `json:"token"`
	Status  accessTokenDomain.AccessStatus `json:"status"`
	Removed bool                           `json:"removed,omitempty"`
}

// RunSetAccessToken sets the status of token, or removes it so the directory
// default applies again.
func RunSetAccessToken(
	ctx context.Context,
	directory accessTokenUseCase.Directory,
	logger *slog.Logger,
	writer io.Writer,
	token, status string,
	remove bool,
	format string,
) error {
	out := accessTokenOutput{Token: token}

	if remove {
		removed, err := directory.Remove(ctx, token)
		if err != nil {
			return fmt.Errorf("failed to remove access token: %w", err)
		}
		out.Removed = removed
		logger.Info("access token removed", slog.Bool("existed", removed))
	} else {
		parsed, err := accessTokenDomain.ParseAccessStatus(status)
		if err != nil {
			return err
		}
		if err := directory.Set(ctx, token, parsed); err != nil {
			return fmt.Errorf("failed to set access token: %w", err)
		}
		logger.Info("access token set", slog.String("status", string(parsed)))
	}
	out.Status = directory.Query(token)

	if format == "json" {
		return writeJSON(writer, out)
	}

	if remove && !out.Removed {
		_, _ = fmt.Fprintf(writer, "Access token was not in the directory.\n")
	}
	_, _ = fmt.Fprintf(writer, "Access token status: %s\n", out.Status)
	return nil
}
