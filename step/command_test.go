package step

import (
	"context"
	"strings"
	"testing"

	"github.com/kbukum/flowkit/errors"
)

func TestCommand_Echo(t *testing.T) {
	s := mustNew(t, "greet", Command("echo", "hello", "world"))
	out, err := s.Execute(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello world" {
		t.Fatalf("expected 'hello world', got %q", out)
	}
}

func TestCommand_Stdin(t *testing.T) {
	s := mustNew(t, "pipe", Command("cat"),
		WithParam("stdin", Optional(T[string]())),
	)
	out, err := s.Execute(context.Background(), Args{"stdin": "from upstream"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "from upstream" {
		t.Fatalf("expected stdin forwarded, got %q", out)
	}
}

func TestCommand_NonZeroExit(t *testing.T) {
	s := mustNew(t, "fail", Command("sh", "-c", "echo oops >&2; exit 3"))
	_, err := s.Execute(context.Background(), nil, nil)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !errors.IsCode(err, errors.ErrCodeExecutorFailure) {
		t.Fatalf("expected executor failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "oops") {
		t.Fatalf("expected stderr in the error, got %v", err)
	}
}

func TestCommand_MissingBinary(t *testing.T) {
	s := mustNew(t, "nope", Command("definitely-not-a-binary-xyz"))
	_, err := s.Execute(context.Background(), nil, nil)
	if !errors.IsCode(err, errors.ErrCodeExecutorFailure) {
		t.Fatalf("expected executor failure, got %v", err)
	}
}
