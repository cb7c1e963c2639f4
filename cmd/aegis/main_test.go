package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseURLList(t *testing.T) {
	in := "# phishing samples\nhttps://bit.ly/3xAbCz9\n\n   https://www.paypal.com/  \n#https://skipped.example\n"
	got, err := parseURLList(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"https://bit.ly/3xAbCz9", "https://www.paypal.com/"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestScanCommandJSON(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "urls.txt")
	if err := os.WriteFile(list, []byte("https://bit.ly/3xAbCz9\nhttps://www.paypal.com/\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "--db-driver", "memory", "--no-color", "scan", "--json", "-f", list, "http://192.168.1.5:8080/login")
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, out)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 json lines, got %d:\n%s", len(lines), out)
	}
	wantURLs := []string{"http://192.168.1.5:8080/login", "https://bit.ly/3xAbCz9", "https://www.paypal.com/"}
	for i, line := range lines {
		var v struct {
			URL    string `json:"url"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			t.Fatalf("line %d is not json: %v", i, err)
		}
		if v.URL != wantURLs[i] {
			t.Errorf("line %d: url %q, want %q", i, v.URL, wantURLs[i])
		}
	}
}

func TestScanCommandRequiresURLs(t *testing.T) {
	if _, err := runCLI(t, "--db-driver", "memory", "scan"); err == nil {
		t.Error("expected an error without urls")
	}
}

func TestHistoryAndStatsCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "aegis.db")

	if out, err := runCLI(t, "--db-url", db, "--db-driver", "sqlite", "--no-color", "scan", "https://bit.ly/3xAbCz9", "https://example.org/"); err != nil {
		t.Fatalf("scan failed: %v\n%s", err, out)
	}

	out, err := runCLI(t, "--db-url", db, "--db-driver", "sqlite", "history", "-n", "1", "--json")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if n := strings.Count(strings.TrimSpace(out), "\n") + 1; n != 1 {
		t.Errorf("expected 1 history line, got %d:\n%s", n, out)
	}

	out, err = runCLI(t, "--db-url", db, "--db-driver", "sqlite", "stats", "--json")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	var s map[string]int
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("stats is not json: %v", err)
	}
	if s["urls_scanned"] != 2 || s["threats_detected"] != 1 || s["system_health"] != 50 {
		t.Errorf("unexpected stats: %v", s)
	}
}

func TestBlocklistCompile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.txt")
	out := filepath.Join(dir, "bad.bloom")
	if err := os.WriteFile(in, []byte("evil.example\nhttps://phish.example/login\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if msg, err := runCLI(t, "blocklist", "compile", in, out); err != nil {
		t.Fatalf("compile failed: %v\n%s", err, msg)
	}

	msg, err := runCLI(t, "--db-driver", "memory", "--blocklist", out, "scan", "--json", "https://sub.evil.example/")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !strings.Contains(msg, `"status":"Malicious"`) || !strings.Contains(msg, `"risk_score":0`) {
		t.Errorf("expected blocklisted verdict, got %s", msg)
	}

	if _, err := runCLI(t, "blocklist", "compile", in, filepath.Join(dir, "bad.txt2")); err == nil {
		t.Error("expected an error for a non-.bloom output name")
	}
}

func TestScanCommandReportsFailures(t *testing.T) {
	out, err := runCLI(t, "--db-driver", "memory", "scan", "--json", "https://bit.ly/3xAbCz9", "   ")
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("expected a failure count error, got %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 json lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], `"error"`) {
		t.Errorf("expected the blank url to be reported as an error, got %s", lines[1])
	}
}
