package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	partyDomain "github.com/allisson/ocpi/internal/party/domain"
	partyUseCase "github.com/allisson/ocpi/internal/party/usecase"
)

// RunListRemoteParties prints the registered parties sorted by id, optionally
// only those accepting token.
func RunListRemoteParties(
	registry partyUseCase.Registry,
	writer io.Writer,
	token string,
	format string,
) error {
	var parties []*partyDomain.RemoteParty
	if token != "" {
		parties = registry.ListByAccessToken(token)
	} else {
		parties = registry.List()
	}

	if format == "json" {
		if parties == nil {
			parties = []*partyDomain.RemoteParty{}
		}
		return writeJSON(writer, parties)
	}

	if len(parties) == 0 {
		_, _ = fmt.Fprintln(writer, "No remote parties registered.")
		return nil
	}

	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tVERSION\tLOCAL\tREMOTE\tLAST UPDATED")
	for _, p := range parties {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			p.ID,
			p.Status,
			p.Version,
			len(p.LocalAccessInfos),
			len(p.RemoteAccessInfos),
			p.LastUpdated.Format(time.RFC3339),
		)
	}
	return tw.Flush()
}
