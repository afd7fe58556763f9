package deploying

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poruru/lambda-shepherd/internal/definitions"
)

func writeArtifact(t *testing.T, target *definitions.Target) {
	t.Helper()
	path := target.BundleZipPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("PK\x03\x04"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func frozenTime(t *testing.T) {
	t.Helper()
	restore := timeNow
	timeNow = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	}
	t.Cleanup(func() { timeNow = restore })
}

func TestUploadKeys(t *testing.T) {
	frozenTime(t)

	execution := testContext(t, map[string]any{
		"bucket":  "deploy-bucket",
		"targets": []any{map[string]any{"names": []any{"foo", "bar"}}},
	})
	keys := uploadKeys(firstTarget(t, execution))

	want := []string{
		"lambda-deployer/function/foo/2026-03-14T09-26-53-589793.zip",
		"lambda-deployer/function/bar/2026-03-14T09-26-53-589793.zip",
	}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for index := range want {
		if keys[index] != want[index] {
			t.Fatalf("keys[%d] = %q, want %q", index, keys[index], want[index])
		}
	}
}

func TestUploadCopiesAdditionalNames(t *testing.T) {
	frozenTime(t)

	execution := testContext(t, map[string]any{
		"bucket":  "deploy-bucket",
		"targets": []any{map[string]any{"names": []any{"foo", "bar"}}},
	})
	target := firstTarget(t, execution)
	writeArtifact(t, target)

	clients := newFakeClients()
	keys, err := newTestDeployer(clients, false).upload(context.Background(), target)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %v", keys)
	}

	if clients.callCount("Upload ") != 1 {
		t.Fatalf("uploads = %d, calls %v", clients.callCount("Upload "), clients.log)
	}
	if clients.callCount("Copy ") != 1 {
		t.Fatalf("copies = %d, calls %v", clients.callCount("Copy "), clients.log)
	}
	if clients.callIndex("Copy "+keys[0]+" -> "+keys[1]) == -1 {
		t.Fatalf("second name not copied from first upload: %v", clients.log)
	}
	for _, key := range keys {
		if clients.callIndex("Exists "+key) == -1 {
			t.Fatalf("uploaded key %s never polled for visibility", key)
		}
	}
}

func TestUploadWaitsForObjectVisibility(t *testing.T) {
	frozenTime(t)
	restore := objectSettlePoll
	objectSettlePoll = time.Millisecond
	t.Cleanup(func() { objectSettlePoll = restore })

	execution := testContext(t, map[string]any{
		"bucket":  "deploy-bucket",
		"targets": []any{map[string]any{"name": "foo"}},
	})
	target := firstTarget(t, execution)
	writeArtifact(t, target)

	clients := newFakeClients()
	keys := uploadKeys(target)
	clients.s3.visibleAfter = map[string]int{keys[0]: 2}

	if _, err := newTestDeployer(clients, false).upload(context.Background(), target); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if polls := clients.callCount("Exists "); polls != 3 {
		t.Fatalf("polled %d times, want 3", polls)
	}
}

func TestUploadFailsWhenObjectNeverSettles(t *testing.T) {
	frozenTime(t)
	restore := objectSettlePoll
	objectSettlePoll = time.Millisecond
	t.Cleanup(func() { objectSettlePoll = restore })

	execution := testContext(t, map[string]any{
		"bucket":  "deploy-bucket",
		"targets": []any{map[string]any{"name": "foo"}},
	})
	target := firstTarget(t, execution)
	writeArtifact(t, target)

	clients := newFakeClients()
	clients.s3.visibleAfter = map[string]int{uploadKeys(target)[0]: objectSettleAttempts + 1}

	_, err := newTestDeployer(clients, false).upload(context.Background(), target)
	if err == nil || !strings.Contains(err.Error(), "not visible") {
		t.Fatalf("err = %v", err)
	}
}

func TestUploadRequiresBundleArtifact(t *testing.T) {
	execution := testContext(t, map[string]any{
		"bucket":  "deploy-bucket",
		"targets": []any{map[string]any{"name": "foo"}},
	})
	target := firstTarget(t, execution)

	_, err := newTestDeployer(newFakeClients(), false).upload(context.Background(), target)
	if err == nil || !strings.Contains(err.Error(), "bundling is required") {
		t.Fatalf("err = %v", err)
	}
}
