package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/allisson/ocpi/internal/totp"
)

type totpOutput struct {
	Previous string    `json:"previous"`
	Current  string    `json:"current"`
	Next     string    `json:"next"`
	At       time.Time `json:"at"`
}

// RunGenerateTOTP prints the codes accepted at now for cfg.
func RunGenerateTOTP(writer io.Writer, cfg totp.Config, now time.Time, format string) error {
	codes, err := totp.Generate(cfg, now)
	if err != nil {
		return fmt.Errorf("failed to generate TOTP codes: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, totpOutput{
			Previous: codes.Previous,
			Current:  codes.Current,
			Next:     codes.Next,
			At:       now.UTC(),
		})
	}

	_, _ = fmt.Fprintf(writer, "Previous: %s\n", codes.Previous)
	_, _ = fmt.Fprintf(writer, "Current:  %s\n", codes.Current)
	_, _ = fmt.Fprintf(writer, "Next:     %s\n", codes.Next)
	return nil
}
