package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"cadence/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrConcatenation, "assembly", "concat", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrConcatenation) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"assembly", "concat", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "engine failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrMissingInput, "timeline", "compile", "no result", nil), "missing_input"},
		{services.Wrap(services.ErrSynthesis, "assembly", "synthesize", "", errors.New("503")), "synthesis"},
		{fmt.Errorf("segment x: %w", services.Wrap(services.ErrConcatenation, "", "", "", nil)), "concatenation"},
		{services.Wrap(services.ErrIO, "timeline", "write", "", nil), "io"},
		{errors.New("plain"), "unknown"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
