package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Remote is the saved address of an ouro-api the CLI drives.
type Remote struct {
	URL   string `json:"url"`
	Token string `json:"token,omitempty"`
}

func remotePath(dataDir string) string {
	return filepath.Join(dataDir, "remote.json")
}

func SaveRemote(dataDir string, r Remote) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}
	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(remotePath(dataDir), body, 0o600)
}

func LoadRemote(dataDir string) (Remote, error) {
	body, err := os.ReadFile(remotePath(dataDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Remote{}, fmt.Errorf("no remote configured; run `ouro remote login`")
		}
		return Remote{}, err
	}
	var r Remote
	if err := json.Unmarshal(body, &r); err != nil {
		return Remote{}, err
	}
	if strings.TrimSpace(r.URL) == "" {
		return Remote{}, fmt.Errorf("no url found in remote config")
	}
	return r, nil
}

func ClearRemote(dataDir string) error {
	err := os.Remove(remotePath(dataDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
