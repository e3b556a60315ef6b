package health

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStatusWithoutChecks(t *testing.T) {
	got := NewService().Status(context.Background())
	if !got.OK || len(got.Checks) != 0 {
		t.Fatalf("unexpected status %+v", got)
	}
}

func TestStatusReportsFailingCheck(t *testing.T) {
	svc := NewService()
	svc.Register("profiles", func(context.Context) error { return nil })
	svc.Register("database", func(context.Context) error { return errors.New("connection refused") })

	got := svc.Status(context.Background())
	want := Status{
		OK: false,
		Checks: []CheckResult{
			{Name: "database", OK: false, Error: "connection refused"},
			{Name: "profiles", OK: true},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}
