package config

import (
	"fmt"
	"path/filepath"

	"fjacquet/finance-etl/internal/fileutils"

	"github.com/joho/godotenv"
)

// RunSettings are the environment dependent values of one run. They are
// resolved once and passed explicitly; nothing is written back to the
// process environment.
type RunSettings struct {
	Environment   string
	SpreadsheetID string
	Model         string
}

// ForEnvironment resolves the settings for env. An empty env selects the
// configured default environment.
func (c *Config) ForEnvironment(env string) (RunSettings, error) {
	if env == "" {
		env = c.Environment
	}
	if err := ValidateEnvironment(env); err != nil {
		return RunSettings{}, err
	}

	settings := RunSettings{Environment: env}
	if env == EnvProduction {
		settings.SpreadsheetID = c.Ledger.SheetIDProd
		settings.Model = c.AI.ModelProd
	} else {
		settings.SpreadsheetID = c.Ledger.SheetIDDev
		settings.Model = c.AI.ModelDev
	}

	if c.Ledger.Backend == "sheets" && settings.SpreadsheetID == "" {
		return RunSettings{}, fmt.Errorf("no spreadsheet ID configured for %s", env)
	}
	return settings, nil
}

// LoadEnv loads variables from a .env file in the working directory or its
// parent, without overriding variables already set. It returns the file
// used, or "" when there is none.
func LoadEnv() (string, error) {
	for _, candidate := range []string{".env", filepath.Join("..", ".env")} {
		if !fileutils.FileExists(candidate) {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			return "", fmt.Errorf("error loading %s: %w", candidate, err)
		}
		return candidate, nil
	}
	return "", nil
}
