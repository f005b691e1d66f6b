package upload

import (
	"testing"

	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/orders"
)

func TestParseFile_AllCommandKinds(t *testing.T) {
	contents := "add,1,bid,100,150.25\nmodify,1,50,151.00\ncancel,1\n"
	result := ParseFile(contents)

	if result.Total != 3 || result.Parsed != 3 || result.Invalid != 0 {
		t.Fatalf("expected 3/3/0, got total=%d parsed=%d invalid=%d", result.Total, result.Parsed, result.Invalid)
	}

	want := []matching.Command{
		{Kind: matching.KindAdd, OrderID: 1, Side: orders.SideBid, Shares: 100, Price: 15025},
		{Kind: matching.KindModify, OrderID: 1, NewShares: 50, NewPrice: 15100},
		{Kind: matching.KindCancel, OrderID: 1},
	}
	for i, cmd := range result.Commands {
		if cmd != want[i] {
			t.Fatalf("command %d = %+v, want %+v", i, cmd, want[i])
		}
	}
}

func TestParseFile_SkipsBlankLines(t *testing.T) {
	contents := "add,1,bid,100,150.25\n\n\ncancel,1\n"
	result := ParseFile(contents)

	if result.Total != 2 {
		t.Fatalf("expected blank lines to be skipped, got total=%d", result.Total)
	}
}

func TestParseFile_InvalidSideIsReportedNotFatal(t *testing.T) {
	contents := "add,1,long,100,150.25\ncancel,1\n"
	result := ParseFile(contents)

	if result.Invalid != 1 || result.Parsed != 1 {
		t.Fatalf("expected one invalid and one parsed line, got invalid=%d parsed=%d", result.Invalid, result.Parsed)
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != "PARSE_INVALID_SIDE" {
		t.Fatalf("expected a PARSE_INVALID_SIDE error, got %+v", result.Errors)
	}
}

func TestParseFile_WrongFieldCount(t *testing.T) {
	result := ParseFile("add,1,bid,100\n")
	if result.Invalid != 1 {
		t.Fatalf("expected the short ADD line to be invalid, got invalid=%d", result.Invalid)
	}
}

func TestParseFile_UnrecognizedCommand(t *testing.T) {
	result := ParseFile("replace,1,bid,100,150.00\n")
	if result.Invalid != 1 || result.Errors[0].Code != "PARSE_INVALID_COMMAND" {
		t.Fatalf("expected PARSE_INVALID_COMMAND, got %+v", result.Errors)
	}
}
