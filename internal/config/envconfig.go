package config

import (
	"fmt"
	"os"
	"strconv"
)

// VarSpec names one environment variable an agent needs at startup, with
// its default. It is the Go port of the original's
// load_environmental_variables((NAME, type, default), ...) helper: typed,
// defaulted, no reflection.
type VarSpec struct {
	Name    string
	Default string
}

// Env is the resolved set of environment variables for one VarSpec list,
// keyed by VarSpec.Name.
type Env map[string]string

// LoadEnv reads each spec's named environment variable, substituting its
// default when unset or empty.
func LoadEnv(specs ...VarSpec) Env {
	env := make(Env, len(specs))
	for _, spec := range specs {
		if v, ok := os.LookupEnv(spec.Name); ok && v != "" {
			env[spec.Name] = v
		} else {
			env[spec.Name] = spec.Default
		}
	}
	return env
}

// String returns the raw string value for name.
func (e Env) String(name string) string {
	return e[name]
}

// Int parses the value for name as an int, returning an error that names
// the offending variable rather than panicking on a malformed deployment.
func (e Env) Int(name string) (int, error) {
	v, err := strconv.Atoi(e[name])
	if err != nil {
		return 0, fmt.Errorf("config: env %s: %w", name, err)
	}
	return v, nil
}

// Float64 parses the value for name as a float64.
func (e Env) Float64(name string) (float64, error) {
	v, err := strconv.ParseFloat(e[name], 64)
	if err != nil {
		return 0, fmt.Errorf("config: env %s: %w", name, err)
	}
	return v, nil
}

// Bool parses the value for name as a bool ("true"/"false"/"1"/"0").
func (e Env) Bool(name string) (bool, error) {
	v, err := strconv.ParseBool(e[name])
	if err != nil {
		return false, fmt.Errorf("config: env %s: %w", name, err)
	}
	return v, nil
}
