package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/pipcore/pkg/cache"
)

func runWithConfig(t *testing.T, cfgContent string, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte(cfgContent), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.SetOutput(&out)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCacheClear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := fc.Set(ctx, "pypi:requests@latest", []byte(`{}`), cache.DefaultTTL); err != nil {
		t.Fatal(err)
	}

	if _, err := runWithConfig(t, "cache_dir = \""+filepath.ToSlash(dir)+"\"\n", "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	if _, ok, _ := fc.Get(ctx, "pypi:requests@latest"); ok {
		t.Error("entry should be gone after cache clear")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache dir should still exist: %v", err)
	}
}

func TestCacheClearDisabled(t *testing.T) {
	if _, err := runWithConfig(t, "", "cache", "clear", "--no-cache"); err != nil {
		t.Errorf("cache clear --no-cache: %v", err)
	}
}

func TestCacheClearInvalidConfig(t *testing.T) {
	if _, err := runWithConfig(t, "concurrency = -1\n", "cache", "clear"); err == nil {
		t.Error("expected config error")
	}
}
