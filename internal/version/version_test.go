// ABOUTME: Tests for version constants
// ABOUTME: Ensures product identity is defined and sane
package version

import (
	"strings"
	"testing"
)

func TestIdentityDefined(t *testing.T) {
	for name, value := range map[string]string{
		"Product":      Product,
		"Manufacturer": Manufacturer,
		"Version":      Version,
	} {
		if value == "" {
			t.Errorf("%s should not be empty", name)
		}
		if len(value) > 100 {
			t.Errorf("%s is unreasonably long: %q", name, value)
		}
	}
}

func TestVersionLooksLikeSemver(t *testing.T) {
	if Version != "dev" && strings.Count(Version, ".") != 2 {
		t.Errorf("expected x.y.z or dev, got %q", Version)
	}
}
