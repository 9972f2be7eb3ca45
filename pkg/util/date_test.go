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

func TestParseTimeInvalid(t *testing.T) {
    for _, s := range []string{"", "yesterday", "-5", "2024/10/10"} {
        if _, ok := ParseTime(s); ok {
            t.Fatalf("expected %q to be rejected", s)
        }
    }
}

func TestParseTimeDateOnly(t *testing.T) {
    got, ok := ParseTime("2024-10-10")
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Year() != 2024 || got.Month() != time.October || got.Day() != 10 {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestDaysBetween(t *testing.T) {
    a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
    b := a.Add(36 * time.Hour)
    if got := DaysBetween(a, b); got != 1.5 {
        t.Fatalf("expected 1.5, got %v", got)
    }
}
