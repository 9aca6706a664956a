package cleanup

import (
	"errors"
	"strings"
	"testing"
)

func TestRunAll_LIFOAndJoinedErrors(t *testing.T) {
	var order []string
	Register("log file", func() error { order = append(order, "log file"); return nil })
	Register("nil hook", nil)
	Register("gateway", func() error { order = append(order, "gateway"); return errors.New("close failed") })

	err := RunAll()
	if err == nil || !strings.Contains(err.Error(), "gateway: close failed") {
		t.Fatalf("expected joined error naming the hook, got %v", err)
	}
	if strings.Join(order, ",") != "gateway,log file" {
		t.Fatalf("hooks ran out of order: %v", order)
	}
	if err := RunAll(); err != nil {
		t.Fatalf("hooks must run only once, got %v", err)
	}
}
