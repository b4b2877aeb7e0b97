package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/iudanet/fitsync/internal/client/iocli"
	"github.com/iudanet/fitsync/internal/config"
	"github.com/iudanet/fitsync/internal/validation"
)

// runInit пишет конфиг по умолчанию; каталог данных лежит рядом с файлом
func runInit(io iocli.IO, path string, force, encrypt bool) error {
	cfg := config.Default(filepath.Dir(path))

	if encrypt {
		passphrase, err := readNewPassphrase(io)
		if err != nil {
			return err
		}
		for i := range cfg.Backends {
			cfg.Backends[i].Passphrase = passphrase
		}
	}

	if err := config.WriteDefault(path, cfg, force); err != nil {
		return err
	}

	io.Println(iocli.Success("✓ Config written"))
	io.Printf("Path: %s\n", path)
	io.Printf("Local database: %s\n", cfg.DBPath)
	for _, b := range cfg.Backends {
		io.Printf("Backend %s (%s): %s\n", b.Name, b.Kind, b.Path)
	}
	return nil
}

func readNewPassphrase(io iocli.IO) (string, error) {
	passphrase, err := io.ReadPassword("Passphrase: ")
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if err := validation.ValidatePassphrase(passphrase); err != nil {
		return "", err
	}

	confirm, err := io.ReadPassword("Repeat passphrase: ")
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if confirm != passphrase {
		return "", errors.New("passphrases do not match")
	}
	return passphrase, nil
}
