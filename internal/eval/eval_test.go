package eval

import (
	"errors"
	"testing"
)

func TestValue(t *testing.T) {
	r := Value("3")
	if !r.Defined || r.Repr != "3" {
		t.Errorf("expected defined \"3\", got %+v", r)
	}
	if NoValue.Defined {
		t.Error("NoValue should not be defined")
	}
}

func panics() (err error) {
	defer RecoverPanic(&err)
	panic("boom")
}

func TestRecoverPanic(t *testing.T) {
	err := panics()
	if !errors.Is(err, ErrPanic) {
		t.Fatalf("expected ErrPanic, got %v", err)
	}
	if err.Error() != "evaluator panic: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
