package env

import "os"

// Get returns the value of the environment variable key, or fallback when it
// is unset or empty. Used for knobs read before config loading, such as the
// log format.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
