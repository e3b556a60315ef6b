package config

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// loadEnvFiles applies KEY=VALUE pairs from the files that exist. Variables
// already present in the environment are left alone, and earlier files win
// over later ones.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		pairs := parseEnv(f)
		_ = f.Close()
		for _, kv := range pairs {
			if _, set := os.LookupEnv(kv[0]); set {
				continue
			}
			_ = os.Setenv(kv[0], kv[1])
		}
	}
}

// parseEnv reads dotenv lines. It accepts an optional "export " prefix,
// single or double quoted values, and trailing " #" comments on unquoted
// values. Malformed lines are skipped.
func parseEnv(r io.Reader) [][2]string {
	var pairs [][2]string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, val, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		pairs = append(pairs, [2]string{key, unquoteEnv(strings.TrimSpace(val))})
	}
	return pairs
}

func unquoteEnv(val string) string {
	if len(val) >= 2 {
		if q := val[0]; (q == '"' || q == '\'') && val[len(val)-1] == q {
			return val[1 : len(val)-1]
		}
	}
	if i := strings.Index(val, " #"); i >= 0 {
		val = strings.TrimSpace(val[:i])
	}
	return val
}
