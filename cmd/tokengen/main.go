// Package main provides a CLI for local testing: it mints session proof tokens
// and hashes admin API keys for ADMIN_API_KEYS.
// Tokens signed with the dev key will NOT validate against a production deployment.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"verigate/internal/keyset"
	"verigate/internal/platform/config"
	"verigate/internal/session"
	"verigate/pkg/domain"
)

// Matches config.FromEnv when JWT_SIGNING_KEY is not set.
const devSigningKey = "dev-secret-key-change-in-production"

type tokenOutput struct {
	Token     string            `json:"token"`
	UserID    string            `json:"user_id"`
	ExpiresIn string            `json:"expires_in"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	sessionCmd := flag.NewFlagSet("session", flag.ExitOnError)
	sessionUserID := sessionCmd.String("user-id", "", "Subject ID (UUID). Generated if empty.")
	sessionKey := sessionCmd.String("key", "", "Signing key. Defaults to JWT_SIGNING_KEY, then the dev key.")
	sessionTTL := sessionCmd.Duration("ttl", config.DefaultSessionTTL, "Token time-to-live")
	sessionJSON := sessionCmd.Bool("json", false, "Output as JSON")

	hashCmd := flag.NewFlagSet("keyhash", flag.ExitOnError)
	hashKey := hashCmd.String("key", "", "Admin API key to hash. Read from stdin if empty.")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "session":
		_ = sessionCmd.Parse(os.Args[2:])
		if err := runSession(*sessionUserID, *sessionKey, *sessionTTL, *sessionJSON); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	case "keyhash":
		_ = hashCmd.Parse(os.Args[2:])
		if err := runKeyHash(*hashKey); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  tokengen session [-user-id UUID] [-key KEY] [-ttl 24h] [-json]
  tokengen keyhash [-key KEY]`)
}

func runSession(rawUserID, key string, ttl time.Duration, asJSON bool) error {
	subject := domain.SubjectID(uuid.New())
	if rawUserID != "" {
		parsed, err := domain.ParseSubjectID(rawUserID)
		if err != nil {
			return err
		}
		subject = parsed
	}
	if key == "" {
		key = os.Getenv("JWT_SIGNING_KEY")
	}
	if key == "" {
		key = devSigningKey
	}

	token, err := session.NewIssuer(key, ttl).Issue(subject)
	if err != nil {
		return err
	}

	if !asJSON {
		fmt.Println(token)
		return nil
	}
	out := tokenOutput{
		Token:     token,
		UserID:    subject.String(),
		ExpiresIn: ttl.String(),
		Usage: map[string]string{
			"submit": fmt.Sprintf(`{"userId":%q,"sessionToken":%q,"skipVerification":true,"problem":"..."}`, subject.String(), token),
		},
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runKeyHash(key string) error {
	if key == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read key from stdin: %w", err)
		}
		key = strings.TrimSpace(line)
	}
	hashed, err := keyset.Hash(key)
	if err != nil {
		return err
	}
	fmt.Println(hashed)
	return nil
}
