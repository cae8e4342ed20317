package cmd

import (
	"strings"
	"testing"
)

func TestValidationFailedError(t *testing.T) {
	err := &ValidationFailedError{Failed: 3}
	if !strings.Contains(err.Error(), "3 checks failed") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestNoModulesSelectedError(t *testing.T) {
	err := &NoModulesSelectedError{}
	if err.Error() == "" {
		t.Error("expected non-empty message")
	}
}
