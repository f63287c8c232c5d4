package buildinfo

import (
	"strings"
	"testing"
)

func TestGetPrefersLdflags(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })

	Version, Commit, Date = "v1.2.3", "abc123", "2026-01-02T03:04:05Z"
	i := Get()
	if i.Version != "v1.2.3" || i.Commit != "abc123" || i.Date != "2026-01-02T03:04:05Z" {
		t.Errorf("Get() = %+v", i)
	}
	if i.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
}

func TestStrings(t *testing.T) {
	oldV := Version
	t.Cleanup(func() { Version = oldV })
	Version = "v9.9.9"

	if s := String(); !strings.HasPrefix(s, "version: v9.9.9\n") {
		t.Errorf("String() = %q", s)
	}
	if s := Template(); !strings.HasPrefix(s, "{{.Name}} version v9.9.9\n") {
		t.Errorf("Template() = %q", s)
	}
	if ua := UserAgent(); !strings.HasPrefix(ua, "familytree/v9.9.9 ") {
		t.Errorf("UserAgent() = %q", ua)
	}
}
