package runner

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnquote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`  plain  `, "plain"},
		{`"C:\xampp"`, `C:\xampp`},
		{`'  spaced  '`, "spaced"},
		{`"mismatched'`, `"mismatched'`},
		{`"`, `"`},
		{``, ``},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Unquote(tt.in), tt.in)
	}
}

func TestFromFileURL(t *testing.T) {
	assert.Equal(t, "relative/dir", FromFileURL("relative/dir"))
	assert.Equal(t, filepath.FromSlash("/opt/lampp"), FromFileURL("file:///opt/lampp"))
	assert.Equal(t, filepath.FromSlash("C:/xampp"), FromFileURL("file:///C:/xampp"))
	assert.Equal(t, filepath.FromSlash("/opt/with space"), FromFileURL("FILE:///opt/with%20space"))
	assert.Equal(t, filepath.FromSlash("C:/xampp"), Normalize(`"file:///C:/xampp"`))
}

func TestSpawnCommand(t *testing.T) {
	file, args := spawnCommand(`C:\xampp\mysql_start.bat`, []string{"x"})
	assert.Equal(t, "cmd.exe", file)
	assert.Equal(t, []string{"/d", "/c", "call", `C:\xampp\mysql_start.bat`, "x"}, args)

	file, args = spawnCommand("mysql.exe", []string{"--version"})
	assert.Equal(t, "mysql.exe", file)
	assert.Equal(t, []string{"--version"}, args)

	assert.True(t, IsBatchScript(`'D:\tools\run.CMD'`))
	assert.False(t, IsBatchScript("php.exe"))
}

func TestExecCapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	res, err := Exec{}.Run(context.Background(), Command{
		Name:  "sh",
		Args:  []string{"-c", "cat; echo oops 1>&2; exit 3"},
		Stdin: "hello\n",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "hello", res.Stdout)
	assert.Equal(t, "oops", res.Stderr)
	assert.Equal(t, "oops", res.Detail())
	assert.False(t, res.TimedOut)
}

func TestExecTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sleep")
	}
	res, err := Exec{}.Run(context.Background(), Command{
		Name:    "sleep",
		Args:    []string{"5"},
		Timeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Less(t, res.Duration, 4*time.Second)
}

func TestExecMissingBinary(t *testing.T) {
	_, err := Exec{}.Run(context.Background(), Command{Name: "definitely-not-a-real-binary-xyz"})
	assert.Error(t, err)
}
