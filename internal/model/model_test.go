package model

import (
	"errors"
	"testing"
)

func TestParseDirective(t *testing.T) {
	cases := map[string]Directive{
		"dump":       DirectiveDump,
		" Critique ": DirectiveCritique,
		"GENERATE":   DirectiveGenerate,
	}
	for in, want := range cases {
		got, err := ParseDirective(in)
		if err != nil {
			t.Fatalf("ParseDirective(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseDirective(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseDirective("summarize"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("ai"); err != nil || r != RoleAssistant {
		t.Fatalf("expected assistant for legacy alias, got %q (%v)", r, err)
	}
	if r, err := ParseRole("USER"); err != nil || r != RoleUser {
		t.Fatalf("expected user, got %q (%v)", r, err)
	}
	if _, err := ParseRole("system"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNoPendingBlockIsNotFound(t *testing.T) {
	if !errors.Is(ErrNoPendingBlock, ErrNotFound) {
		t.Fatalf("expected ErrNoPendingBlock to match ErrNotFound")
	}
}
