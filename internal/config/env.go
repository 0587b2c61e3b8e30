package config

import (
	"os"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; the first one that exists is loaded.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads the first .env file found in the working directory and
// returns its name. Existing process environment variables are not overwritten.
func loadEnvFile() (string, error) {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return "", err
		}
		return name, nil
	}
	return "", os.ErrNotExist
}
