// Package testutils provides test infrastructure for canopy command tests.
package testutils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/agar/pkg/agar"
)

// Setup creates a test case configured to run the canopy binary. The test is
// skipped when the binary has not been built.
func Setup(t *testing.T) *test.Case {
	t.Helper()

	_, thisFile, _, _ := runtime.Caller(0) //nolint:dogsled // runtime.Caller returns 4 values, only file is needed
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	binaryPath := filepath.Join(projectRoot, "bin", "canopy")

	if _, err := os.Stat(binaryPath); err != nil {
		t.Skipf("canopy binary not built (%s): run make build", binaryPath)
	}

	return agar.Setup(binaryPath)
}
