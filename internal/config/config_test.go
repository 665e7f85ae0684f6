package config

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("PULSE_TEST_STR", "hello")
	t.Setenv("PULSE_TEST_INT", "42")
	t.Setenv("PULSE_TEST_FLOAT", "0.35")
	t.Setenv("PULSE_TEST_BOOL", "true")
	t.Setenv("PULSE_TEST_BAD_INT", "not-a-number")

	if got := getEnv("PULSE_TEST_STR", "fallback"); got != "hello" {
		t.Errorf("getEnv: expected hello, got %s", got)
	}
	if got := getEnv("PULSE_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnv fallback: expected fallback, got %s", got)
	}
	if got := getEnvInt("PULSE_TEST_INT", 7); got != 42 {
		t.Errorf("getEnvInt: expected 42, got %d", got)
	}
	if got := getEnvInt("PULSE_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvInt on garbage: expected fallback 7, got %d", got)
	}
	if got := getEnvFloat("PULSE_TEST_FLOAT", 0); got != 0.35 {
		t.Errorf("getEnvFloat: expected 0.35, got %v", got)
	}
	if got := getEnvBool("PULSE_TEST_BOOL", false); !got {
		t.Error("getEnvBool: expected true")
	}
}

// JIRA session cookies routinely contain double quotes; the .env parser must
// preserve them inside single-quoted values.
func TestGodotenvQuoting(t *testing.T) {
	content := `JIRA_SESSION_ID='value with "double quotes"'`
	tmpfile, err := os.CreateTemp("", ".env.test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(tmpfile.Name())
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	expected := `value with "double quotes"`
	if env["JIRA_SESSION_ID"] != expected {
		t.Errorf("Expected %s, got %s", expected, env["JIRA_SESSION_ID"])
	}
}
