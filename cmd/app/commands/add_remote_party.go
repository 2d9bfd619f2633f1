package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	accessTokenDomain "github.com/allisson/ocpi/internal/accesstoken/domain"
	partyDomain "github.com/allisson/ocpi/internal/party/domain"
	partyUseCase "github.com/allisson/ocpi/internal/party/usecase"
	"github.com/allisson/ocpi/internal/totp"
)

// AddRemotePartyOptions are the inputs of add-remote-party.
type AddRemotePartyOptions struct {
	ID          string
	Token       string
	TokenStatus string
	TOTPSecret  string
	VersionsURL string
	RemoteToken string
	Status      string
	IfNotExists bool
}

// input builds the registry input from the options.
func (o AddRemotePartyOptions) input() (partyDomain.PartyInput, error) {
	tokenStatus, err := accessTokenDomain.ParseAccessStatus(o.TokenStatus)
	if err != nil {
		return partyDomain.PartyInput{}, err
	}

	local := partyDomain.LocalAccessInfo{
		AccessToken: o.Token,
		Status:      tokenStatus,
	}
	if o.TOTPSecret != "" {
		cfg := totp.NewConfig(o.TOTPSecret)
		local.TOTPConfig = &cfg
	}

	input := partyDomain.PartyInput{
		ID:               strings.ToUpper(strings.TrimSpace(o.ID)),
		LocalAccessInfos: []partyDomain.LocalAccessInfo{local},
		Status:           partyDomain.PartyStatus(strings.ToUpper(strings.TrimSpace(o.Status))),
	}

	if o.VersionsURL != "" || o.RemoteToken != "" {
		input.RemoteAccessInfos = []partyDomain.RemoteAccessInfo{{
			VersionsURL: o.VersionsURL,
			AccessToken: o.RemoteToken,
			Status:      partyDomain.RemoteOffline,
		}}
	}
	return input, nil
}

// RunAddRemoteParty registers a remote party. With IfNotExists an existing id
// is reported as a no-op instead of an error.
func RunAddRemoteParty(
	ctx context.Context,
	registry partyUseCase.Registry,
	logger *slog.Logger,
	writer io.Writer,
	opts AddRemotePartyOptions,
	format string,
) error {
	input, err := opts.input()
	if err != nil {
		return fmt.Errorf("invalid remote party: %w", err)
	}

	logger.Info("adding remote party",
		slog.String("id", input.ID),
		slog.Bool("if_not_exists", opts.IfNotExists),
	)

	var result partyDomain.Result
	if opts.IfNotExists {
		result, err = registry.AddIfNotExists(ctx, input)
	} else {
		result, err = registry.Add(ctx, input)
	}
	if err != nil {
		return fmt.Errorf("failed to add remote party: %w", err)
	}
	if !result.OK() {
		return fmt.Errorf("failed to add remote party: %s", result.Message)
	}

	return outputResult(writer, input.ID, result, format)
}

// resultOutput is the JSON rendering of a registry mutation.
type resultOutput struct {
	ID      string                   `json:"id"`
	Outcome partyDomain.Outcome      `json:"outcome"`
	Message string                   `json:"message,omitempty"`
	Party   *partyDomain.RemoteParty `json:"party,omitempty"`
}

// outputResult prints a registry mutation result.
func outputResult(writer io.Writer, id string, result partyDomain.Result, format string) error {
	if format == "json" {
		return writeJSON(writer, resultOutput{
			ID:      id,
			Outcome: result.Outcome,
			Message: result.Message,
			Party:   result.Party,
		})
	}

	_, _ = fmt.Fprintf(writer, "Remote party %s: %s\n", id, result.Outcome)
	if result.Message != "" {
		_, _ = fmt.Fprintf(writer, "%s\n", result.Message)
	}
	if result.Party != nil {
		_, _ = fmt.Fprintf(writer, "Status:  %s\n", result.Party.Status)
		_, _ = fmt.Fprintf(writer, "Version: %d\n", result.Party.Version)
	}
	return nil
}
