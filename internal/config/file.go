package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	userConfigDir  = ".signvec"
	userConfigFile = "config.json"
	dotEnvFile     = ".env"
)

// UserConfigPath returns the location of the optional per-user config file.
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, userConfigDir, userConfigFile), nil
}

// readUserConfig merges ~/.signvec/config.json into v when it exists.
func readUserConfig(v *viper.Viper) error {
	path, err := UserConfigPath()
	if err != nil {
		// Best-effort: if we can't resolve home, just skip file loading.
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// loadDotEnv exports the variables of a .env file in the working directory.
// Variables that are already set in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
