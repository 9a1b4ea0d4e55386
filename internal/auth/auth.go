package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/vizu-atelier/internal/gemini"
)

const (
	credentialDir  = ".vizu-atelier"
	credentialFile = "credentials.gpg"
	passphraseFile = "passphrase"
)

// keyEnvVars are checked in order before the GPG file.
var keyEnvVars = []string{"API_KEY", "GEMINI_API_KEY"}

// GetAPIKey retrieves the Gemini API key from available sources.
// Priority order:
//  1. API_KEY environment variable
//  2. GEMINI_API_KEY environment variable
//  3. GPG-encrypted file at ~/.vizu-atelier/credentials.gpg
//
// The returned error wraps gemini.ErrMissingAPIKey when no source has a key.
func GetAPIKey() (string, error) {
	for _, name := range keyEnvVars {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			log.Debug().Str("source", name).Msg("Using API key from environment variable")
			return key, nil
		}
	}

	key, err := getFromGPG()
	if err == nil && key != "" {
		log.Debug().Msg("Using API key from GPG encrypted file")
		return key, nil
	}

	log.Debug().Err(err).Msg("No API key in environment or GPG credentials")
	return "", fmt.Errorf("%w (or store one in ~/%s/%s)", gemini.ErrMissingAPIKey, credentialDir, credentialFile)
}

// getFromGPG decrypts the API key from ~/.vizu-atelier/credentials.gpg.
func getFromGPG() (string, error) {
	credPath, err := getCredentialPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(credPath); errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("GPG credentials file not found at %s", credPath)
	}

	log.Debug().Str("file", credPath).Msg("Decrypting GPG credentials")
	output, err := exec.Command("gpg", gpgArgs(credPath, passphrasePath(credPath))...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("GPG decryption failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("GPG decryption failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// gpgArgs builds the decrypt command line. A passphrase file readable only
// by its owner switches gpg to loopback pinentry, so `atelier serve` and
// scripted runs never block on a prompt.
func gpgArgs(credPath, passphraseFile string) []string {
	args := []string{"--decrypt", "--quiet"}
	if passphraseFile != "" {
		if fi, err := os.Stat(passphraseFile); err == nil {
			if perm := fi.Mode().Perm(); perm&0o077 != 0 {
				log.Warn().
					Str("passphrase_file", passphraseFile).
					Str("permissions", fmt.Sprintf("%04o", perm)).
					Msg("Passphrase file is readable by others (want 0600); ignoring it")
			} else {
				args = append(args, "--pinentry-mode", "loopback", "--passphrase-file", passphraseFile)
			}
		}
	}
	return append(args, credPath)
}

// getCredentialPath returns the full path to the credentials file.
func getCredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, credentialDir, credentialFile), nil
}

// passphrasePath is ATELIER_GPG_PASSPHRASE_FILE, or "passphrase" next to
// the credentials file.
func passphrasePath(credPath string) string {
	if p := os.Getenv("ATELIER_GPG_PASSPHRASE_FILE"); p != "" {
		return p
	}
	return filepath.Join(filepath.Dir(credPath), passphraseFile)
}
