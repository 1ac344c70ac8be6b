// Package capture wires corvus into the shell: it installs the preexec and
// precmd hooks that drive the start/end capture protocol, and the keybinding
// for interactive search.
package capture

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed shell/bash.sh
var bashHook string

//go:embed shell/zsh.sh
var zshHook string

// hookMarker identifies an installed hook block in an RC file.
const hookMarker = "# corvus - structured shell history"

// ShellType represents the type of shell
type ShellType string

const (
	// ShellBash represents Bash shell
	ShellBash ShellType = "bash"
	// ShellZsh represents Zsh shell
	ShellZsh ShellType = "zsh"
	// ShellFish represents Fish shell
	ShellFish ShellType = "fish"
)

// DetectShell detects the current shell from environment
func DetectShell() (ShellType, error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		return "", fmt.Errorf("SHELL environment variable not set")
	}

	switch filepath.Base(shell) {
	case "bash":
		return ShellBash, nil
	case "zsh":
		return ShellZsh, nil
	case "fish":
		return ShellFish, nil
	default:
		return "", fmt.Errorf("unsupported shell: %s", filepath.Base(shell))
	}
}

// GetHookContent returns the shell hook content for the given shell type with keybinding
func GetHookContent(shell ShellType, keybinding string) (string, error) {
	var hookTemplate string

	switch shell {
	case ShellBash:
		hookTemplate = bashHook
	case ShellZsh:
		hookTemplate = zshHook
	case ShellFish:
		return "", fmt.Errorf("fish shell not yet supported")
	default:
		return "", fmt.Errorf("unsupported shell: %s", shell)
	}

	display, code, err := parseKeybinding(shell, keybinding)
	if err != nil {
		return "", err
	}

	content := strings.ReplaceAll(hookTemplate, "{{KEYBINDING_DISPLAY}}", display)
	content = strings.ReplaceAll(content, "{{KEYBINDING_CODE}}", code)

	return content, nil
}

// parseKeybinding converts a keybinding name to display format and shell-specific code.
// Supports format like "ctrl-r", "ctrl-g", "ctrl-f", etc.
func parseKeybinding(shell ShellType, keybinding string) (display string, code string, err error) {
	kb := strings.ToLower(strings.TrimSpace(keybinding))

	if strings.HasPrefix(kb, "ctrl-") {
		key := strings.TrimPrefix(kb, "ctrl-")
		if len(key) != 1 {
			return "", "", fmt.Errorf("invalid keybinding format: %s (expected ctrl-X where X is a single letter)", keybinding)
		}

		display = "Ctrl-" + strings.ToUpper(key)

		switch shell {
		case ShellBash:
			// Bash format: \C-r
			code = "\\C-" + key
		case ShellZsh:
			// Zsh format: ^R
			code = "^" + strings.ToUpper(key)
		default:
			code = "\\C-" + key
		}

		return display, code, nil
	}

	return "", "", fmt.Errorf("unsupported keybinding format: %s (expected ctrl-X format like 'ctrl-r')", keybinding)
}

// GetRCFile returns the RC file path for the given shell type
func GetRCFile(shell ShellType) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	switch shell {
	case ShellBash:
		// Try .bashrc first, then .bash_profile
		bashrc := filepath.Join(home, ".bashrc")
		if _, err := os.Stat(bashrc); err == nil {
			return bashrc, nil
		}
		return filepath.Join(home, ".bash_profile"), nil

	case ShellZsh:
		if zdotdir := os.Getenv("ZDOTDIR"); zdotdir != "" {
			return filepath.Join(zdotdir, ".zshrc"), nil
		}
		return filepath.Join(home, ".zshrc"), nil

	default:
		return "", fmt.Errorf("unsupported shell: %s", shell)
	}
}

// IsHookInstalled checks if the corvus hook is already installed in the RC file
func IsHookInstalled(rcFile string) (bool, error) {
	content, err := os.ReadFile(rcFile)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read RC file: %w", err)
	}

	return strings.Contains(string(content), hookMarker), nil
}

// HookInstallResult contains information about the hook installation
type HookInstallResult struct {
	RCFile           string // Path to the RC file that was modified
	BackupFile       string // Path to the backup file
	Installed        bool   // Whether the hook was newly installed
	KeybindingUpdate bool   // Whether the keybinding was updated
}

// InstallHook installs the corvus hook into the RC file with the specified
// keybinding. Re-running against an installed hook only reconciles the
// keybinding; it never appends a second copy.
func InstallHook(shell ShellType, rcFile string, keybinding string) (*HookInstallResult, error) {
	result := &HookInstallResult{
		RCFile: rcFile,
	}

	installed, err := IsHookInstalled(rcFile)
	if err != nil {
		return nil, err
	}

	if installed {
		result.Installed = false

		currentKeybinding, err := extractCurrentKeybinding(rcFile, shell)
		if err != nil {
			// Old installation without a recognizable binding line; leave it be.
			return result, nil
		}

		desired := strings.ToLower(strings.TrimSpace(keybinding))
		current := strings.ToLower(strings.TrimSpace(currentKeybinding))

		if desired != current {
			if err := updateKeybinding(rcFile, shell, keybinding); err != nil {
				return nil, fmt.Errorf("failed to update keybinding: %w", err)
			}
			result.KeybindingUpdate = true
		}

		return result, nil
	}

	hookContent, err := GetHookContent(shell, keybinding)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(rcFile); os.IsNotExist(err) {
		if err := os.WriteFile(rcFile, []byte{}, 0644); err != nil {
			return nil, fmt.Errorf("failed to create RC file: %w", err)
		}
	}

	backupFile := rcFile + ".corvus.backup"
	result.BackupFile = backupFile

	if err := copyFile(rcFile, backupFile); err != nil {
		return nil, fmt.Errorf("failed to backup RC file: %w", err)
	}

	f, err := os.OpenFile(rcFile, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open RC file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := f.WriteString("\n" + hookContent + "\n"); err != nil {
		return nil, fmt.Errorf("failed to write hook to RC file: %w", err)
	}

	result.Installed = true
	return result, nil
}

// extractCurrentKeybinding extracts the current keybinding from the RC file
func extractCurrentKeybinding(rcFile string, shell ShellType) (string, error) {
	content, err := os.ReadFile(rcFile)
	if err != nil {
		return "", fmt.Errorf("failed to read RC file: %w", err)
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)

		switch shell {
		case ShellBash:
			// Look for: bind -x '"\C-r": __corvus_widget'
			if strings.Contains(line, "bind -x") && strings.Contains(line, "__corvus_widget") {
				if idx := strings.Index(line, `"\C-`); idx != -1 {
					start := idx + 4
					if start < len(line) {
						return "ctrl-" + strings.ToLower(string(line[start])), nil
					}
				}
			}
		case ShellZsh:
			// Look for: bindkey '^R' __corvus_widget
			if strings.Contains(line, "bindkey") && strings.Contains(line, "__corvus_widget") {
				if idx := strings.Index(line, "'^"); idx != -1 {
					start := idx + 2
					if start < len(line) {
						return "ctrl-" + strings.ToLower(string(line[start])), nil
					}
				}
			}
		}
	}

	return "", fmt.Errorf("keybinding not found in RC file")
}

// updateKeybinding updates the keybinding line in the RC file
func updateKeybinding(rcFile string, shell ShellType, keybinding string) error {
	content, err := os.ReadFile(rcFile)
	if err != nil {
		return fmt.Errorf("failed to read RC file: %w", err)
	}

	_, newCode, err := parseKeybinding(shell, keybinding)
	if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")
	modified := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch shell {
		case ShellBash:
			if strings.Contains(trimmed, "bind -x") && strings.Contains(trimmed, "__corvus_widget") {
				lines[i] = fmt.Sprintf("bind -x '\"%s\": __corvus_widget'", newCode)
				modified = true
			}
		case ShellZsh:
			if strings.Contains(trimmed, "bindkey") && strings.Contains(trimmed, "__corvus_widget") {
				lines[i] = fmt.Sprintf("bindkey '%s' __corvus_widget", newCode)
				modified = true
			}
		}
	}

	if !modified {
		return fmt.Errorf("keybinding line not found in RC file")
	}

	if err := os.WriteFile(rcFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("failed to write RC file: %w", err)
	}

	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
