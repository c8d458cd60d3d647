package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*|:\?[^}]*)?\}`)

// envExpander expands ${VAR}, ${VAR:-default} and ${VAR:?message}.
type envExpander struct {
	strict  bool
	missing []string
}

// Expand replaces every variable reference in input. Unset variables expand
// to the empty string unless strict is set or the reference is required.
func (e *envExpander) Expand(input string) (string, error) {
	e.missing = nil

	out := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		name, modifier, _ := strings.Cut(match[2:len(match)-1], ":")
		value, ok := os.LookupEnv(name)

		switch {
		case strings.HasPrefix(modifier, "-"):
			if !ok || value == "" {
				return modifier[1:]
			}
		case strings.HasPrefix(modifier, "?"):
			if !ok || value == "" {
				e.missing = append(e.missing, fmt.Sprintf("%s: %s", name, modifier[1:]))
				return match
			}
		case !ok && e.strict:
			e.missing = append(e.missing, name)
		}

		return value
	})

	if len(e.missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingEnvVar, strings.Join(e.missing, ", "))
	}

	return out, nil
}

// ExpandEnv expands variable references in input, leaving unset ones empty.
func ExpandEnv(input string) string {
	out, _ := (&envExpander{}).Expand(input)
	return out
}
