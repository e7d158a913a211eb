package shared

import (
	"errors"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	restore := func(rt, browser func() string, start func(*exec.Cmd) error) {
		getRuntime, getBrowser, startCmd = rt, browser, start
	}
	origRuntime, origBrowser, origStart := getRuntime, getBrowser, startCmd
	t.Cleanup(func() { restore(origRuntime, origBrowser, origStart) })

	const target = "https://accounts.spotify.com/authorize?client_id=x"

	tc := []struct {
		name    string
		goos    string
		browser string
		want    string
	}{
		{name: "darwin", goos: "darwin", want: "open"},
		{name: "linux", goos: "linux", want: "xdg-open"},
		{name: "windows", goos: "windows", want: "rundll32"},
		{name: "browser env wins", goos: "linux", browser: "firefox", want: "firefox"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var started *exec.Cmd
			restore(
				func() string { return tt.goos },
				func() string { return tt.browser },
				func(c *exec.Cmd) error { started = c; return nil },
			)

			if err := OpenBrowser(target); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if started == nil {
				t.Fatal("expected a command to be started")
			}
			if got := filepath.Base(started.Args[0]); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if last := started.Args[len(started.Args)-1]; last != target {
				t.Errorf("expected URL as last argument, got %q", last)
			}
		})
	}

	t.Run("unsupported platform", func(t *testing.T) {
		restore(func() string { return "plan9" }, func() string { return "" }, func(*exec.Cmd) error { return nil })

		if err := OpenBrowser(target); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})

	t.Run("rejects non-http urls", func(t *testing.T) {
		restore(func() string { return "linux" }, func() string { return "" }, func(*exec.Cmd) error {
			t.Error("no command should start")
			return nil
		})

		for _, u := range []string{"file:///etc/passwd", "javascript:alert(1)", "not a url", ""} {
			if err := OpenBrowser(u); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("%q: expected ErrInvalidInput, got %v", u, err)
			}
		}
	})

	t.Run("start failure", func(t *testing.T) {
		restore(func() string { return "linux" }, func() string { return "" }, func(*exec.Cmd) error {
			return errors.New("no display")
		})

		if err := OpenBrowser(target); err == nil {
			t.Error("expected start error to be returned")
		}
	})
}
