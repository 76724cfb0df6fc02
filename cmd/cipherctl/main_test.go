package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RowanDark/cipherbreak/internal/api"
	"github.com/RowanDark/cipherbreak/internal/cipher"
	"github.com/RowanDark/cipherbreak/internal/rpc"
	"github.com/RowanDark/cipherbreak/internal/service"
)

// isolate points HOME and the recipe store at a temporary directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("CIPHERBREAK_RECIPES_DIR", dir+"/recipes")
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--log-level", "error"}, args...)
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestDecodeCommand(t *testing.T) {
	isolate(t)

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"search", "", []string{"decode", "caesar", "YMJ", "HTIJ"}, "DECODED: THE CODE\n"},
		{"explicit shift", "", []string{"decode", "caesar", "-p", "shift=3", "WKH"}, "DECODED: THE\n"},
		{"stdin", ".... ..\n", []string{"decode", "morse"}, "DECODED: HI\n"},
		{"stdin dash", "gsv xlwv", []string{"decode", "atbash", "-"}, "DECODED: THE CODE\n"},
		{"alias", "", []string{"decode", "a1z26", "8 9"}, "DECODED: HI\n"},
		{"failure is output", "", []string{"decode", "morse", "..--.."}, "Error decoding Morse code: unknown morse symbol: ..--..\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, code := execute(t, tt.stdin, tt.args...)
			require.Equal(t, 0, code, stderr)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestDecodeJSONOutput(t *testing.T) {
	isolate(t)
	stdout, stderr, code := execute(t, "", "-o", "json", "decode", "caesar", "YMJ HTIJ")
	require.Equal(t, 0, code, stderr)

	var res service.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, cipher.KindCaesar, res.Kind)
	assert.Equal(t, "decoded", res.Outcome)
}

func TestErrors(t *testing.T) {
	isolate(t)

	_, stderr, code := execute(t, "", "decode", "vigenere", "abc")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown cipher kind")

	_, stderr, code = execute(t, "", "-o", "yaml", "decode", "caesar", "abc")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unsupported output format")

	_, stderr, code = execute(t, "  \n", "decode", "caesar")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no input text provided")

	_, stderr, code = execute(t, "", "chain", "abc")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "at least one --step is required")
}

func TestEncodeAndRank(t *testing.T) {
	isolate(t)

	stdout, stderr, code := execute(t, "", "encode", "railfence", "-p", "rails=3", "WEAREDISCOVEREDFLEEATONCE")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "WECRLTEERDSOEEFEAOCAIVDEN\n", stdout)

	stdout, stderr, code = execute(t, "", "-o", "json", "rank", "caesar", "--top", "3", "YMJ HTIJ")
	require.Equal(t, 0, code, stderr)
	var hs []cipher.Hypothesis
	require.NoError(t, json.Unmarshal([]byte(stdout), &hs))
	require.Len(t, hs, 3)
	assert.Equal(t, "THE CODE", hs[0].Text)
	assert.GreaterOrEqual(t, hs[0].Score, hs[1].Score)

	stdout, _, code = execute(t, "", "rank", "caesar", "YMJ HTIJ")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "THE CODE")
	assert.Contains(t, stdout, "Score")
}

func TestIdentifyAutoAndFreq(t *testing.T) {
	isolate(t)

	stdout, stderr, code := execute(t, "", "identify", ".... ..")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "morse")

	stdout, _, code = execute(t, "", "auto", "8 5 12 12 15")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "DECODED: HELLO (numeric"), stdout)

	stdout, _, code = execute(t, "", "-o", "json", "freq", "AAB")
	require.Equal(t, 0, code)
	var report freqReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.InDelta(t, 1.0/3.0, report.IndexOfCoincidence, 1e-9)
	require.Len(t, report.Letters, 2)

	stdout, _, code = execute(t, "", "-o", "markdown", "freq", "AAB")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "| Letter |")
}

func TestChainAndRecipes(t *testing.T) {
	isolate(t)

	stdout, stderr, code := execute(t, "", "chain", "--step", "atbash", "--step", "caesar:shift=3", "KSSD WD JIIJ")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "DECODED: MEET AT NOON\n", stdout)

	stdout, stderr, code = execute(t, "", "chain", "-s", "atbash", "-s", "morse", "abc")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "chain stopped at step 2 (morse)")
	assert.True(t, strings.HasPrefix(stdout, "Error decoding Morse code"), stdout)

	_, stderr, code = execute(t, "", "recipe", "save", "layered", "-s", "atbash", "-s", "rot:shift=3", "--tag", "demo", "--description", "atbash over caesar")
	require.Equal(t, 0, code, stderr)

	// Each invocation reloads recipes from disk.
	stdout, _, code = execute(t, "", "recipe", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "atbash -> caesar:shift=3")

	stdout, _, code = execute(t, "", "recipe", "run", "layered", "KSSD WD JIIJ")
	require.Equal(t, 0, code)
	assert.Equal(t, "DECODED: MEET AT NOON\n", stdout)

	stdout, _, code = execute(t, "", "recipe", "delete", "layered")
	require.Equal(t, 0, code)
	assert.Equal(t, "deleted recipe layered\n", stdout)

	_, stderr, code = execute(t, "", "recipe", "run", "layered", "x")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "recipe not found")
}

func TestTokenCommand(t *testing.T) {
	isolate(t)

	_, stderr, code := execute(t, "", "token")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "jwt_secret is not configured")

	t.Setenv("CIPHERBREAK_JWT_SECRET", "cli-secret")
	stdout, stderr, code := execute(t, "", "token", "--subject", "alice", "--ttl", "5m")
	require.Equal(t, 0, code, stderr)

	auth, err := api.NewAuthenticator([]byte("cli-secret"), "cipherbreak", time.Minute)
	require.NoError(t, err)
	claims, err := auth.Validate(strings.TrimSpace(stdout))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
}

func TestRemoteDecode(t *testing.T) {
	isolate(t)

	reg, err := cipher.NewRegistry(cipher.DefaultSolverConfig())
	require.NoError(t, err)
	listener := rpc.NewListener(rpc.NewServer(service.New(reg)), rpc.Options{})
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	stdout, stderr, code := execute(t, "", "decode", "--remote", lis.Addr().String(), "caesar", "YMJ HTIJ")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "DECODED: THE CODE\n", stdout)

	stdout, stderr, code = execute(t, "", "-o", "json", "identify", "--remote", lis.Addr().String(), ".... ..")
	require.Equal(t, 0, code, stderr)
	var detections []cipher.DetectionResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &detections))
	require.NotEmpty(t, detections)
	assert.Equal(t, cipher.KindMorse, detections[0].Kind)
}
