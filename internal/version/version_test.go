package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	old := [3]string{Version, Commit, BuildDate}
	t.Cleanup(func() { Version, Commit, BuildDate = old[0], old[1], old[2] })

	Version, Commit, BuildDate = "v1.2.0", "abc1234", "2025-10-01"
	info := Get()
	if info.Version != "v1.2.0" || info.GoVersion != runtime.Version() {
		t.Errorf("Get() = %+v", info)
	}
	if got := info.String(); got != "v1.2.0 (commit: abc1234, built: 2025-10-01)" {
		t.Errorf("String() = %q", got)
	}

	Version = "dev"
	if got := Get().Version; !strings.HasPrefix(got, "dev") && !strings.HasPrefix(got, "v") {
		t.Errorf("dev build version = %q", got)
	}
}
