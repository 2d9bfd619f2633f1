package usecase

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/allisson/ocpi/internal/accesstoken/domain"
	"github.com/allisson/ocpi/internal/commandlog"
	commandlogDomain "github.com/allisson/ocpi/internal/commandlog/domain"
	apperrors "github.com/allisson/ocpi/internal/errors"
)

// Command names written to the access token log file.
const (
	CommandSetAccessToken    = "setAccessToken"
	CommandRemoveAccessToken = "removeAccessToken"
)

// Config holds directory settings.
type Config struct {
	// DefaultStatus applies to tokens that were never set.
	DefaultStatus domain.AccessStatus
	// File is the command log file; empty disables persistence.
	File string
}

type directory struct {
	config Config
	log    CommandLog
	logger *slog.Logger

	tokens sync.Map // map[string]domain.AccessStatus

	// mu orders log appends with map updates; reads never take it.
	mu sync.Mutex
}

// NewDirectory creates a directory. log may be nil, in which case changes are
// kept in memory only.
func NewDirectory(cfg Config, log CommandLog, logger *slog.Logger) (Directory, error) {
	if cfg.DefaultStatus == "" {
		cfg.DefaultStatus = domain.StatusAllowed
	}
	if !cfg.DefaultStatus.IsValid() {
		return nil, apperrors.Wrapf(domain.ErrInvalidAccessStatus, "default %q", cfg.DefaultStatus)
	}
	if log == nil {
		cfg.File = ""
	}
	return &directory{
		config: cfg,
		log:    log,
		logger: logger,
	}, nil
}

func (d *directory) persistent() bool {
	return d.log != nil && d.config.File != ""
}

// Set implements Directory.
func (d *directory) Set(ctx context.Context, token string, status domain.AccessStatus) error {
	if token == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "access token must not be empty")
	}
	if !status.IsValid() {
		return apperrors.Wrapf(domain.ErrInvalidAccessStatus, "%q", status)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.persistent() {
		payload, err := commandlogDomain.ObjectPayload(domain.AccessToken{Token: token, Status: status})
		if err != nil {
			return err
		}
		if err := d.append(ctx, CommandSetAccessToken, payload); err != nil {
			return err
		}
	}

	d.tokens.Store(token, status)
	return nil
}

// Remove implements Directory.
func (d *directory) Remove(ctx context.Context, token string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.tokens.Load(token); !ok {
		return false, nil
	}

	if d.persistent() {
		if err := d.append(ctx, CommandRemoveAccessToken, commandlogDomain.TextPayload(token)); err != nil {
			return false, err
		}
	}

	d.tokens.Delete(token)
	return true, nil
}

func (d *directory) append(ctx context.Context, name string, payload commandlogDomain.Payload) error {
	future := d.log.Append(ctx, d.config.File, name, payload,
		commandlog.EventTrackingID(ctx), commandlog.UserID(ctx))
	// Once queued the line is either skipped (ctx ended first) or written, so
	// waiting past cancellation keeps memory in step with the file.
	if err := future.Wait(context.WithoutCancel(ctx)); err != nil {
		return apperrors.Wrapf(err, "failed to persist %s", name)
	}
	return nil
}

// Query implements Directory.
func (d *directory) Query(token string) domain.AccessStatus {
	if status, ok := d.tokens.Load(token); ok {
		return status.(domain.AccessStatus)
	}
	return d.config.DefaultStatus
}

// IsAllowed implements Directory.
func (d *directory) IsAllowed(token string) bool {
	return d.Query(token) == domain.StatusAllowed
}

// IsBlocked implements Directory.
func (d *directory) IsBlocked(token string) bool {
	return d.Query(token) == domain.StatusBlocked
}

// DefaultStatus implements Directory.
func (d *directory) DefaultStatus() domain.AccessStatus {
	return d.config.DefaultStatus
}

// List implements Directory.
func (d *directory) List() []domain.AccessToken {
	var tokens []domain.AccessToken
	d.tokens.Range(func(key, value any) bool {
		tokens = append(tokens, domain.AccessToken{
			Token:  key.(string),
			Status: value.(domain.AccessStatus),
		})
		return true
	})
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Token < tokens[j].Token })
	return tokens
}

// Replay implements Directory. Unknown or undecodable commands are skipped.
func (d *directory) Replay(ctx context.Context) (int, error) {
	if !d.persistent() {
		return 0, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	applied := 0
	for cmd, err := range d.log.Load(d.config.File) {
		if err != nil {
			return applied, err
		}
		if err := ctx.Err(); err != nil {
			return applied, err
		}

		switch cmd.Name {
		case CommandSetAccessToken:
			var tok domain.AccessToken
			if err := cmd.Payload.Decode(&tok); err != nil || tok.Token == "" || !tok.Status.IsValid() {
				d.skip(cmd, err)
				continue
			}
			d.tokens.Store(tok.Token, tok.Status)
		case CommandRemoveAccessToken:
			token, ok := cmd.Payload.Text()
			if !ok {
				d.skip(cmd, nil)
				continue
			}
			d.tokens.Delete(token)
		default:
			d.skip(cmd, nil)
			continue
		}
		applied++
	}

	d.logger.Info("access tokens restored",
		slog.String("file", d.config.File),
		slog.Int("commands", applied),
	)
	return applied, nil
}

func (d *directory) skip(cmd commandlogDomain.CommandWithMetadata, err error) {
	d.logger.Warn("skipping access token command",
		slog.String("command", cmd.Name),
		slog.String("event_tracking_id", cmd.EventTrackingID),
		slog.Any("error", err),
	)
}
