// Package upload parses the line-oriented file upload format into
// matching.Command values: one command per line, three command kinds
// distinguished by the leading command token (case-insensitive), each
// with its own required field count.
//
// Line formats (comma-separated, no header row):
//
//	ADD:    add,<id>,<bid|ask>,<shares>,<price>
//	MODIFY: modify,<id>,<shares>,<price>
//	CANCEL: cancel,<id>
package upload

import (
	"strconv"
	"strings"
	"time"

	"github.com/rishav/order-matching-engine/internal/apperr"
	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/orders"
	"github.com/rishav/order-matching-engine/internal/price"
)

// Result reports parse statistics for one uploaded file, alongside the
// commands successfully parsed from it.
type Result struct {
	Commands []matching.Command
	Total    int // number of non-empty lines seen
	Parsed   int // number of lines that parsed into a command
	Invalid  int // number of lines that failed to parse
	Errors   []*apperr.Error
	Elapsed  time.Duration
}

// ParseFile parses the full contents of an uploaded file.
func ParseFile(contents string) Result {
	start := time.Now()

	var result Result
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		result.Total++

		cmd, err := parseLine(line)
		if err != nil {
			result.Invalid++
			if e, ok := err.(*apperr.Error); ok {
				result.Errors = append(result.Errors, e)
			}
			continue
		}

		result.Commands = append(result.Commands, cmd)
		result.Parsed++
	}

	result.Elapsed = time.Since(start)
	return result
}

func parseLine(line string) (matching.Command, error) {
	parts := strings.Split(line, ",")
	if len(parts) == 0 {
		return matching.Command{}, apperr.ErrParseInvalidFormat
	}

	switch strings.ToLower(strings.TrimSpace(parts[0])) {
	case "add":
		return parseAdd(parts)
	case "modify":
		return parseModify(parts)
	case "cancel":
		return parseCancel(parts)
	default:
		return matching.Command{}, apperr.ErrParseInvalidCommand.WithDetail("command", parts[0])
	}
}

// parseAdd expects: add,<id>,<bid|ask>,<shares>,<price>
func parseAdd(parts []string) (matching.Command, error) {
	if len(parts) != 5 {
		return matching.Command{}, apperr.ErrParseInvalidFormat.WithDetail("expected_fields", 5).WithDetail("got_fields", len(parts))
	}

	id, err := parseUint(parts[1])
	if err != nil {
		return matching.Command{}, err
	}

	side, err := parseSide(parts[2])
	if err != nil {
		return matching.Command{}, err
	}

	shares, err := parseUint(parts[3])
	if err != nil {
		return matching.Command{}, err
	}

	cents, err := parsePrice(parts[4])
	if err != nil {
		return matching.Command{}, err
	}

	return matching.Command{Kind: matching.KindAdd, OrderID: id, Side: side, Shares: shares, Price: cents}, nil
}

// parseModify expects: modify,<id>,<shares>,<price>
func parseModify(parts []string) (matching.Command, error) {
	if len(parts) != 4 {
		return matching.Command{}, apperr.ErrParseInvalidFormat.WithDetail("expected_fields", 4).WithDetail("got_fields", len(parts))
	}

	id, err := parseUint(parts[1])
	if err != nil {
		return matching.Command{}, err
	}

	shares, err := parseUint(parts[2])
	if err != nil {
		return matching.Command{}, err
	}

	cents, err := parsePrice(parts[3])
	if err != nil {
		return matching.Command{}, err
	}

	return matching.Command{Kind: matching.KindModify, OrderID: id, NewShares: shares, NewPrice: cents}, nil
}

// parseCancel expects: cancel,<id>
func parseCancel(parts []string) (matching.Command, error) {
	if len(parts) != 2 {
		return matching.Command{}, apperr.ErrParseInvalidFormat.WithDetail("expected_fields", 2).WithDetail("got_fields", len(parts))
	}

	id, err := parseUint(parts[1])
	if err != nil {
		return matching.Command{}, err
	}

	return matching.Command{Kind: matching.KindCancel, OrderID: id}, nil
}

func parseSide(s string) (orders.Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bid":
		return orders.SideBid, nil
	case "ask":
		return orders.SideAsk, nil
	default:
		return 0, apperr.ErrParseInvalidSide.WithDetail("value", s)
	}
}

func parseUint(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, apperr.ErrParseInvalidNumber.WithDetail("value", s).WithCause(err)
	}
	return v, nil
}

func parsePrice(s string) (int64, error) {
	cents, err := price.Parse(strings.TrimSpace(s))
	if err != nil {
		return 0, apperr.ErrParseInvalidNumber.WithDetail("value", s).WithCause(err)
	}
	return cents, nil
}
