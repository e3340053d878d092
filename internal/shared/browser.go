package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// browserCommand returns the launcher for the current platform.
func browserCommand(target string) (*exec.Cmd, error) {
	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.Command("open", target), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", target), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target), nil
	default:
		return nil, fmt.Errorf("%w: unsupported platform %s", ErrNotImplemented, rt)
	}
}

// OpenBrowser opens an http(s) link (a Spotify track page or a YouTube preview) in the default browser.
func OpenBrowser(link string) error {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: not a web link: %q", ErrInvalidInput, link)
	}

	cmd, err := browserCommand(u.String())
	if err != nil {
		return err
	}
	return cmd.Start()
}
