// Package installer locates the cloudflared executable. Installing the
// daemon is a collaborator's job; this only answers "where is it".
package installer

import (
	"fmt"
	"os"
	"os/exec"
)

const (
	daemonName = "cloudflared"
	pathEnvVar = "VITE_TUNNEL_CLOUDFLARED"
)

type Installer struct {
	// Override wins over the environment and PATH lookup.
	Override string
}

// EnsureInstalled returns the path to a runnable cloudflared binary.
func (i Installer) EnsureInstalled() (string, error) {
	if i.Override != "" {
		return checkPath(i.Override)
	}
	if p := os.Getenv(pathEnvVar); p != "" {
		return checkPath(p)
	}
	p, err := exec.LookPath(daemonName)
	if err != nil {
		return "", fmt.Errorf("cloudflared not found on PATH: %w (install it from https://developers.cloudflare.com/cloudflare-one/connections/connect-networks/downloads/)", err)
	}
	return p, nil
}

func checkPath(p string) (string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("cloudflared path %q: %w", p, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("cloudflared path %q is a directory", p)
	}
	return p, nil
}
