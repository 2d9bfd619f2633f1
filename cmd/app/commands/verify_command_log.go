package commands

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/allisson/ocpi/internal/commandlog"
)

// CommandLogInspector scans log files without replaying them.
type CommandLogInspector interface {
	Files() ([]string, error)
	Inspect(file string) (commandlog.InspectReport, error)
}

type verifyFileOutput struct {
	File          string                     `json:"file"`
	Commands      int                        `json:"commands"`
	CommandCounts map[string]int             `json:"command_counts,omitempty"`
	Malformed     []commandlog.MalformedLine `json:"malformed,omitempty"`
}

// RunVerifyCommandLog inspects file, or every file of the log directory, and
// fails when any line cannot be parsed. Malformed lines are skipped during
// replay, so this is the way to notice them.
func RunVerifyCommandLog(
	log CommandLogInspector,
	logger *slog.Logger,
	writer io.Writer,
	file string,
	format string,
) error {
	files := []string{file}
	if file == "" {
		var err error
		files, err = log.Files()
		if err != nil {
			return err
		}
	}

	outputs := make([]verifyFileOutput, 0, len(files))
	malformed := 0
	for _, f := range files {
		report, err := log.Inspect(f)
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", f, err)
		}
		malformed += len(report.Malformed)
		outputs = append(outputs, verifyFileOutput{
			File:          report.File,
			Commands:      report.Commands,
			CommandCounts: report.CommandCounts,
			Malformed:     report.Malformed,
		})
	}

	if format == "json" {
		if err := writeJSON(writer, outputs); err != nil {
			return err
		}
	} else {
		outputVerifyText(writer, outputs)
	}

	logger.Info("command log verification completed",
		slog.Int("files", len(files)),
		slog.Int("malformed", malformed),
	)

	if malformed > 0 {
		return fmt.Errorf("command log verification failed: %d malformed line(s)", malformed)
	}
	return nil
}

func outputVerifyText(writer io.Writer, outputs []verifyFileOutput) {
	_, _ = fmt.Fprintf(writer, "Command Log Verification\n")
	_, _ = fmt.Fprintf(writer, "========================\n\n")

	if len(outputs) == 0 {
		_, _ = fmt.Fprintf(writer, "No command log files found.\n")
		return
	}

	for _, out := range outputs {
		_, _ = fmt.Fprintf(writer, "%s\n", out.File)
		_, _ = fmt.Fprintf(writer, "  Commands:  %d\n", out.Commands)

		names := make([]string, 0, len(out.CommandCounts))
		for name := range out.CommandCounts {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			_, _ = fmt.Fprintf(writer, "    %-28s %d\n", name, out.CommandCounts[name])
		}

		_, _ = fmt.Fprintf(writer, "  Malformed: %d\n", len(out.Malformed))
		for _, m := range out.Malformed {
			_, _ = fmt.Fprintf(writer, "    line %d: %s\n", m.Line, m.Error)
		}
		_, _ = fmt.Fprintln(writer)
	}
}
