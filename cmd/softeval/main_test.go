package main

import (
	"bytes"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI with args and stdin, returning stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEval(t *testing.T) {
	out, err := run(t, "", "eval", "[add(1,2)]", "[ucstr(x)]")
	require.NoError(t, err)
	assert.Equal(t, "3 X\n", out)
}

func TestEvalTrace(t *testing.T) {
	out, err := run(t, "", "--trace", "eval", "[add(1,2)]")
	require.NoError(t, err)
	assert.Contains(t, out, "  [trace #1]: Wizard(#1)} 'add(1,2)' -> '3'\n")
	assert.True(t, strings.HasSuffix(out, "3\n"), out)
}

func TestUnknownPlayer(t *testing.T) {
	_, err := run(t, "", "--player", "#99", "eval", "x")
	assert.ErrorContains(t, err, "no object #99")

	_, err = run(t, "", "--player", "nobody", "eval", "x")
	assert.ErrorContains(t, err, "nobody")

	out, err := run(t, "", "--player", "wizard", "eval", "%#")
	require.NoError(t, err)
	assert.Equal(t, "#1\n", out)
}

func TestBatch(t *testing.T) {
	in := "# comment\n[add(1,1)] | 2\n[add(1,1)] | 3\n[cat(a,b)]\n"
	out, err := run(t, in, "batch", "-")
	assert.ErrorContains(t, err, "1 expression(s) failed")
	assert.Contains(t, out, "[PASS] Line 2: [add(1,1)]\n")
	assert.Contains(t, out, "[FAIL] Line 3: [add(1,1)]\n  Expected: 3\n  Got:      2\n")
	assert.Contains(t, out, "Line 4: [cat(a,b)] => a b\n")
}

func TestRepl(t *testing.T) {
	in := "[setq(0,kept)]%q0\n%q0\n@trace on\n[add(2,2)]\n@trace off\n@player nobody\n@bogus\nquit\n[add(9,9)]\n"
	out, err := run(t, in, "repl")
	require.NoError(t, err)
	assert.Contains(t, out, "mush> kept\n")
	assert.Contains(t, out, "[trace #1]: Wizard(#1)} 'add(2,2)' -> '4'")
	assert.Contains(t, out, `no player named "nobody"`)
	assert.Contains(t, out, "unknown directive @bogus")
	assert.NotContains(t, out, "18")
	assert.Equal(t, 1, strings.Count(out, "kept"), "registers leaked across commands")
}

func TestSetAndFuncPersist(t *testing.T) {
	db := filepath.Join(t.TempDir(), "world.db")

	out, err := run(t, "", "--db", db, "set", "#1", "DOUBLE", "[add(%0,%0)]")
	require.NoError(t, err)
	assert.Equal(t, "#1/DOUBLE set.\n", out)

	out, err = run(t, "", "--db", db, "func", "double", "#1/double")
	require.NoError(t, err)
	assert.Equal(t, "Function DOUBLE defined.\n", out)

	out, err = run(t, "", "--db", db, "eval", "[double(21)] [u(#1/double,2)]")
	require.NoError(t, err)
	assert.Equal(t, "42 4\n", out)

	_, err = run(t, "", "--db", db, "set", "#1", "ECHO", "<%0>")
	require.NoError(t, err)
	_, err = run(t, "", "--db", db, "func", "echo", "#1/echo", "--noeval")
	require.NoError(t, err)
	out, err = run(t, "", "--db", db, "eval", "[echo(add(1,2))]")
	require.NoError(t, err)
	assert.Equal(t, "<add(1,2)>\n", out)

	_, err = run(t, "", "--db", db, "func", "double", "--delete")
	require.NoError(t, err)
	out, err = run(t, "", "--db", db, "eval", "[double(1)]")
	require.NoError(t, err)
	assert.Equal(t, "#-1 FUNCTION (DOUBLE) NOT FOUND\n", out)

	out, err = run(t, "", "--db", db, "set", "#1", "DOUBLE")
	require.NoError(t, err)
	assert.Equal(t, "#1/DOUBLE cleared.\n", out)
}

func TestStoreCommandsNeedDatabase(t *testing.T) {
	_, err := run(t, "", "set", "#1", "VA", "x")
	assert.ErrorContains(t, err, "needs --db")

	_, err = run(t, "", "func", "f", "#1")
	assert.ErrorContains(t, err, "needs --db")
}

func TestFuncArgErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "world.db")
	_, err := run(t, "", "--db", db, "func", "f", "#1")
	assert.ErrorContains(t, err, "not <object>/<attribute>")
	_, err = run(t, "", "--db", db, "func", "f", "#1/nosuchattr")
	assert.ErrorContains(t, err, "no attribute")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "softeval.yaml")
	body := "function_invocation_limit: 1\ndatabase: " + filepath.Join(dir, "cfg.db") + "\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0644))

	out, err := run(t, "", "--config", cfg, "eval", "[add(1,1)][add(2,2)]")
	require.NoError(t, err)
	assert.Equal(t, "2#-1 FUNCTION INVOCATION LIMIT EXCEEDED\n", out)
	assert.FileExists(t, filepath.Join(dir, "cfg.db"))
}

func TestCheck(t *testing.T) {
	out, err := run(t, "", "check")
	require.NoError(t, err)
	assert.Equal(t, "0 finding(s)\n", out)

	_, err = run(t, "", "check", "--fix")
	assert.ErrorContains(t, err, "needs --db")

	db := filepath.Join(t.TempDir(), "world.db")
	_, err = run(t, "", "--db", db, "set", "#1", "VA", `[nope(1)] \\%r`)
	require.NoError(t, err)

	out, err = run(t, "", "--db", db, "check", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_findings": 2`)

	out, err = run(t, "", "--db", db, "check", "--fix")
	require.NoError(t, err)
	assert.Contains(t, out, "1 backslash-percent pattern(s) in VA on #1 (Wizard) (fixed)")
	assert.Contains(t, out, "unknown function(s) nope() in VA on #1\n")

	out, err = run(t, "", "--db", db, "check")
	require.NoError(t, err)
	assert.NotContains(t, out, "backslash-percent")
	assert.True(t, strings.HasSuffix(out, "1 finding(s)\n"), out)
}

func TestCloseLogsMetricsShutdownError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	entered, release := make(chan struct{}), make(chan struct{})
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	})}
	go srv.Serve(ln)
	go http.Get("http://" + ln.Addr().String() + "/metrics")
	<-entered
	defer close(release)

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)
	old := shutdownGrace
	shutdownGrace = 10 * time.Millisecond
	defer func() { shutdownGrace = old }()

	(&session{srv: srv}).Close()
	assert.Contains(t, logs.String(), "metrics: shutdown: context deadline exceeded")
}
