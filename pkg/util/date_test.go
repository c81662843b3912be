package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeRSS(t *testing.T) {
	want := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	for _, s := range []string{
		"Thu, 10 Oct 2024 10:10:10 GMT",
		"Thu, 10 Oct 2024 10:10:10 +0000",
	} {
		got, ok := ParseTime(s)
		if !ok {
			t.Fatalf("expected ok for %q", s)
		}
		if !got.Equal(want) {
			t.Fatalf("unexpected time %v for %q", got, s)
		}
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("yesterday", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault(" 7 ", 1); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := ParseIntDefault("x", 1); got != 1 {
		t.Fatalf("expected default, got %d", got)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol("  acme.ns "); got != "ACME.NS" {
		t.Fatalf("unexpected %q", got)
	}
}
