// Package action publishes results to the GitHub Actions runner.
package action

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// TicketsOutput is the step output name the ticket list is published under
const TicketsOutput = "tickets"

// EncodeTickets renders tickets as a JSON array; nil becomes []
func EncodeTickets(tickets []string) (string, error) {
	if tickets == nil {
		tickets = []string{}
	}
	b, err := json.Marshal(tickets)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode tickets")
	}
	return string(b), nil
}

// WriteOutput appends name=value to the runner's GITHUB_OUTPUT file
func WriteOutput(path, name, value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return errors.Newf("output %s must be a single line", name)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to open output file")
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s=%s\n", name, value); err != nil {
		return errors.Wrap(err, "failed to write output")
	}

	return nil
}
