// SPDX-License-Identifier: MIT
package build

import (
	"strings"
	"testing"
)

func TestGetInfoDefaults(t *testing.T) {
	info := GetInfo()
	if info.Name != "spectra" {
		t.Errorf("Name = %q, want %q", info.Name, "spectra")
	}
	if info.Version == "" {
		t.Error("Version must never be empty")
	}
}

func TestInfoString(t *testing.T) {
	info := Info{
		Name:    "spectra",
		Version: "v1.2.0",
		Commit:  "abcdef1",
		Time:    "2025-04-13T10:00:00Z",
	}
	s := info.String()
	for _, want := range []string{"spectra", "v1.2.0", "abcdef1", "2025-04-13T10:00:00Z"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
