package version

import (
	"strings"
	"testing"
)

func TestStringStartsWithVersion(t *testing.T) {
	if !strings.HasPrefix(String(), Version) {
		t.Errorf("String() = %q, want prefix %q", String(), Version)
	}
	if !strings.HasPrefix(Version, "v") {
		t.Errorf("Version %q should start with v", Version)
	}
}
