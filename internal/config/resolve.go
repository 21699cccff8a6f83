package config

import (
	"fmt"
	"os"
	"strings"
)

// Resolver expands environment references in configuration values.
type Resolver struct {
	lookup func(string) (string, bool)
}

// NewResolver creates a Resolver backed by the process environment.
func NewResolver() *Resolver {
	return &Resolver{lookup: os.LookupEnv}
}

// Resolve expands a value of the form $NAME or ${NAME}. Any other value is
// returned unchanged. Referencing an unset variable is an error.
func (r *Resolver) Resolve(value string) (string, error) {
	name, ok := envReference(value)
	if !ok {
		return value, nil
	}
	resolved, set := r.lookup(name)
	if !set {
		return "", fmt.Errorf("environment variable %q is not set", name)
	}
	return resolved, nil
}

func envReference(value string) (string, bool) {
	if !strings.HasPrefix(value, "$") {
		return "", false
	}
	name := strings.TrimPrefix(value, "$")
	if strings.HasPrefix(name, "{") && strings.HasSuffix(name, "}") {
		name = name[1 : len(name)-1]
	}
	if name == "" || strings.ContainsAny(name, " ${}") {
		return "", false
	}
	return name, true
}
