package sse

import (
	"errors"
	"strings"
	"testing"
)

func TestScanLinesJoinsMultiLineData(t *testing.T) {
	stream := strings.Join([]string{
		"data: line one",
		"data: line two",
		"",
	}, "\n")

	var got []string
	if err := ScanLines(strings.NewReader(stream), func(raw string) error {
		got = append(got, raw)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "line one\nline two" {
		t.Fatalf("got %q", got)
	}
}

func TestScanLinesSkipsCommentsAndEmptyEvents(t *testing.T) {
	stream := strings.Join([]string{
		": this is a comment",
		"",
		"data: hello",
		"",
	}, "\n")

	var got []string
	if err := ScanLines(strings.NewReader(stream), func(raw string) error {
		got = append(got, raw)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestScanLinesFlushesTrailingEventWithoutBlankLine(t *testing.T) {
	stream := "data: no trailing newline"

	var got []string
	if err := ScanLines(strings.NewReader(stream), func(raw string) error {
		got = append(got, raw)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "no trailing newline" {
		t.Fatalf("got %q", got)
	}
}

func TestScanLinesPropagatesCallbackError(t *testing.T) {
	boom := errors.New("boom")
	err := ScanLines(strings.NewReader("data: x\n\n"), func(string) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}
