package config

import (
	"path/filepath"
	"testing"
)

func TestResolveConfigPath(t *testing.T) {
	cases := []struct {
		goos, home, pd, want string
	}{
		{"linux", "/home/u", "", filepath.Join("/etc", "augur", "server.yaml")},
		{"darwin", "/Users/u", "", filepath.Join("/Users/u", "Library", "Application Support", "augur", "server.yaml")},
		{"windows", "", `D:\Data\`, filepath.Join(`D:\Data`, "augur", "server.yaml")},
		{"windows", "", "", filepath.Join("C:/ProgramData", "augur", "server.yaml")},
	}
	for _, c := range cases {
		if got := ResolveConfigPath(c.goos, c.home, c.pd, "server.yaml"); got != c.want {
			t.Errorf("%s: got %q want %q", c.goos, got, c.want)
		}
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("AUGUR_TEST_KEY", "")
	if v := GetEnv("AUGUR_TEST_KEY", "def"); v != "def" {
		t.Fatalf("empty env: got %q", v)
	}
	t.Setenv("AUGUR_TEST_KEY", "x")
	if v := GetEnv("AUGUR_TEST_KEY", "def"); v != "x" {
		t.Fatalf("set env: got %q", v)
	}
}
