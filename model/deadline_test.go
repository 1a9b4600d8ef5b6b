package model

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func TestParseDeadlineLocalWallClock(t *testing.T) {
	got, err := ParseDeadline("2024-06-15 14:30", time.Local)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.June || got.Day() != 15 || got.Hour() != 14 || got.Minute() != 30 {
		t.Fatalf("expected local 2024-06-15 14:30, got %v", got)
	}
	if got.Location() != time.Local {
		t.Fatalf("expected local location, got %v", got.Location())
	}
}

func TestParseDeadlineNilLocationMeansLocal(t *testing.T) {
	got, err := ParseDeadline(" 2024-06-15 14:30 ", nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got.Hour() != 14 || got.Minute() != 30 {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseDeadlineSyntaxErrors(t *testing.T) {
	cases := []string{
		"2024-13-01 10:00",
		"2024-02-30 10:00",
		"2024-06-15",
		"15/06/2024 10:00",
		"2024-06-15 25:00",
		"",
		"tomorrow",
	}
	for _, in := range cases {
		_, err := ParseDeadline(in, time.UTC)
		if !errors.Is(err, ErrDeadlineSyntax) {
			t.Fatalf("%q: expected ErrDeadlineSyntax, got %v", in, err)
		}
		if errors.Is(err, ErrDeadlineLocalTime) {
			t.Fatalf("%q: syntax error must not match ErrDeadlineLocalTime", in)
		}
		var de *DeadlineError
		if !errors.As(err, &de) || de.Input != in {
			t.Fatalf("%q: expected *DeadlineError carrying input, got %#v", in, err)
		}
	}
}

func TestParseDeadlineRejectsDSTGapAndOverlap(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location failed: %v", err)
	}

	// 2024-03-10 02:00 jumps to 03:00.
	if _, err := ParseDeadline("2024-03-10 02:30", ny); !errors.Is(err, ErrDeadlineLocalTime) {
		t.Fatalf("expected ErrDeadlineLocalTime for gap, got %v", err)
	}
	// 2024-11-03 01:00-02:00 happens twice.
	if _, err := ParseDeadline("2024-11-03 01:30", ny); !errors.Is(err, ErrDeadlineLocalTime) {
		t.Fatalf("expected ErrDeadlineLocalTime for overlap, got %v", err)
	}

	got, err := ParseDeadline("2024-11-03 03:30", ny)
	if err != nil {
		t.Fatalf("unambiguous time failed: %v", err)
	}
	want := time.Date(2024, 11, 3, 8, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseDeadlineFixedZone(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*3600)
	got, err := ParseDeadline("2024-01-02 03:04", zone)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !got.Equal(time.Date(2024, 1, 1, 22, 4, 0, 0, time.UTC)) {
		t.Fatalf("unexpected instant %v", got)
	}
}
