package session

import (
	"fmt"
	"os"
)

const (
	SecretEnvVar = "REELFEED_SESSION_SECRET"
)

// SecretFromEnv reads the signing secret from the named environment
// variable and immediately clears it, so the secret does not linger
// in the environment of child processes. getfn/setfn default to the
// real environment and exist for tests.
func SecretFromEnv(varname string, getfn func(string) string, setfn func(string, string) error) ([]byte, error) {
	if getfn == nil {
		getfn = os.Getenv
	}
	if setfn == nil {
		setfn = os.Setenv
	}
	val := getfn(varname)
	setfn(varname, "")
	if len(val) < minSecretLen {
		return nil, fmt.Errorf("session: secret from %v must have at least %v bytes", varname, minSecretLen)
	}
	return []byte(val), nil
}
