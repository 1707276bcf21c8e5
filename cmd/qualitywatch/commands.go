package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HerbHall/qualitywatch/internal/auth"
	"github.com/HerbHall/qualitywatch/internal/config"
	"github.com/HerbHall/qualitywatch/internal/server"
	"gopkg.in/yaml.v3"
)

// sensitiveKeys are redacted when printing the effective configuration.
var sensitiveKeys = []string{"secret", "password", "api_key", "token", "routing_key"}

// runConfig prints the effective configuration (defaults, file and
// environment merged) as YAML.
func runConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	showSecrets := fs.Bool("show-secrets", false, "print secret values instead of redacting them")
	_ = fs.Parse(args)

	v, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	settings := v.AllSettings()
	if !*showSecrets {
		redact(settings)
	}
	out, err := yaml.Marshal(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode configuration: %v\n", err)
		os.Exit(1)
	}
	if f := v.ConfigFileUsed(); f != "" {
		fmt.Printf("# source: %s\n", f)
	}
	os.Stdout.Write(out)
}

// redact blanks non-empty values whose key names a credential.
func redact(m map[string]any) {
	for k, v := range m {
		switch val := v.(type) {
		case map[string]any:
			redact(val)
		case string:
			if val != "" && isSensitive(k) {
				m[k] = "********"
			}
		}
	}
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// runToken issues an operator bearer token signed with auth.jwt_secret.
func runToken(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	subject := fs.String("subject", "operator", "operator name recorded in the token")
	ttl := fs.Duration("ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = fs.Parse(args)

	v, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	authCfg := auth.DefaultConfig()
	if err := config.New(v).Sub("auth").Unmarshal(&authCfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid auth configuration: %v\n", err)
		os.Exit(1)
	}
	if *ttl > 0 {
		authCfg.TokenTTL = *ttl
	}
	tokens := auth.NewTokenServiceFromConfig(authCfg)
	if tokens == nil {
		fmt.Fprintln(os.Stderr, auth.ErrNoSecret)
		os.Exit(1)
	}
	tok, err := tokens.Issue(*subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
	fmt.Fprintf(os.Stderr, "expires %s\n", time.Now().Add(tokens.TTL()).UTC().Format(time.RFC3339))
}

// ensureDir creates the parent directory of a SQLite database file.
func ensureDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create data directory %s: %w", dir, err)
	}
	return nil
}
