package procutil

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvVar names an environment variable read by the repl tools.
type EnvVar string

// LookupEnv returns the value of name and whether it is set.
func LookupEnv(name EnvVar) (string, bool) {
	return os.LookupEnv(string(name))
}

// LookupStringEnv returns the value of name, or defaultValue when it is
// unset or empty.
func LookupStringEnv(name EnvVar, defaultValue string) string {
	if val, ok := LookupEnv(name); ok && val != "" {
		return val
	}
	return defaultValue
}

// LookupBoolEnv returns the boolean value of name.  Besides true/false and
// 1/0 it accepts yes/no; anything else yields defaultValue.
func LookupBoolEnv(name EnvVar, defaultValue bool) bool {
	val, ok := LookupEnv(name)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "yes":
		return true
	case "no":
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return defaultValue
}

// LookupDurationEnv returns the duration held by name, such as "3s", or
// defaultValue when it is unset or malformed.
func LookupDurationEnv(name EnvVar, defaultValue time.Duration) time.Duration {
	val, ok := LookupEnv(name)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}
	return d
}
