package deps

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"clarion/internal/config"
)

// CheckDirectories reports access to every directory Clarion writes into.
// The workspace is optional because the engine creates it when it loads.
func CheckDirectories(cfg *config.Config) []Status {
	workspace := CheckDirectory("Workspace", cfg.Paths.WorkDir)
	workspace.Optional = true
	return []Status{
		workspace,
		CheckDirectory("Output", cfg.Paths.OutputDir),
		CheckDirectory("Logs", cfg.Paths.LogDir),
	}
}

// CheckDirectory verifies that path exists and is readable and writable.
func CheckDirectory(name, path string) Status {
	status := Status{Name: name, Command: path, Path: path, Description: "Directory access"}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		status.Detail = fmt.Sprintf("%s does not exist", path)
		return status
	case err != nil:
		status.Detail = fmt.Sprintf("%s: stat: %v", path, err)
		return status
	case !info.IsDir():
		status.Detail = fmt.Sprintf("%s is not a directory", path)
		return status
	}
	if err := checkAccess(path); err != nil {
		status.Detail = fmt.Sprintf("%s: insufficient permissions: %v", path, err)
		return status
	}
	status.Available = true
	status.Detail = fmt.Sprintf("%s (read/write ok)", path)
	return status
}
