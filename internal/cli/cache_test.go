package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flowviz/flowviz/pkg/cache"
)

// runCommandOutput is runCommand with the command's stdout captured.
func runCommandOutput(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.toml")))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCachePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FLOWVIZ_CACHE_DIR", dir)

	out, err := runCommandOutput(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got := strings.TrimSpace(out); got != dir {
		t.Errorf("cache path = %q, want %q", got, dir)
	}
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FLOWVIZ_CACHE_DIR", dir)

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{"k1", "k2"} {
		if err := fc.Set(ctx, key, []byte("payload"), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	if err := runCommand(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	count, _, err := fc.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("entries after clear = %d, want 0", count)
	}
}

func TestCacheStats(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FLOWVIZ_CACHE_DIR", dir)

	if err := runCommand(t, "cache", "stats"); err != nil {
		t.Fatalf("cache stats: %v", err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
