package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "1.2.3"

	info := Get()
	if info.Version != "1.2.3" || info.GoVersion != runtime.Version() {
		t.Fatalf("unexpected info: %+v", info)
	}
	if !strings.HasPrefix(info.String(), "version: 1.2.3\n") {
		t.Fatalf("unexpected rendering: %q", info.String())
	}
}
