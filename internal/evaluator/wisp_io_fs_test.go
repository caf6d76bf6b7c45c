package evaluator

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisp/internal/object"
)

func TestSlurpAndSpit(t *testing.T) {
	ev := newTestEvaluator()
	path := filepath.Join(t.TempDir(), "data.txt")

	result := ev.EvalString(fmt.Sprintf(`(spit %q "hello\nworld")`, path))
	require.Equal(t, object.NIL_OBJ, result.Type(), result.Inspect())

	result = ev.EvalString(fmt.Sprintf("(slurp %q)", path))
	assert.Equal(t, `"hello\nworld"`, result.Inspect())
}

func TestSlurpMissingFile(t *testing.T) {
	ev := newTestEvaluator()
	path := filepath.Join(t.TempDir(), "absent.txt")

	wantError(t, ev.EvalString(fmt.Sprintf("(slurp %q)", path)), object.TypeError)
}

func TestAppendFile(t *testing.T) {
	ev := newTestEvaluator()
	path := filepath.Join(t.TempDir(), "log.txt")

	evalSeq(t, ev,
		fmt.Sprintf(`(append-file %q "one")`, path),
		fmt.Sprintf(`(append-file %q "two")`, path))

	result := ev.EvalString(fmt.Sprintf("(slurp %q)", path))
	assert.Equal(t, `"onetwo"`, result.Inspect())

	// append-file reports the byte count written
	n := ev.EvalString(fmt.Sprintf(`(append-file %q "xyz")`, path))
	assert.Equal(t, "3", n.Inspect())
}

func TestFileExistsAndDelete(t *testing.T) {
	ev := newTestEvaluator()
	path := filepath.Join(t.TempDir(), "f.txt")

	assert.Equal(t, "false", ev.EvalString(fmt.Sprintf("(file-exists? %q)", path)).Inspect())

	evalSeq(t, ev, fmt.Sprintf(`(spit %q "x")`, path))
	assert.Equal(t, "true", ev.EvalString(fmt.Sprintf("(file-exists? %q)", path)).Inspect())

	assert.Equal(t, "nil", ev.EvalString(fmt.Sprintf("(delete-file %q)", path)).Inspect())
	assert.Equal(t, "false", ev.EvalString(fmt.Sprintf("(file-exists? %q)", path)).Inspect())

	wantError(t, ev.EvalString(fmt.Sprintf("(delete-file %q)", path)), object.TypeError)
}

func TestLoadFile(t *testing.T) {
	ev := newTestEvaluator()
	path := filepath.Join(t.TempDir(), "lib.wisp")

	src := "(def! triple (fn* (n) (* n 3)))\n(def! loaded true)\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	result := ev.EvalString(fmt.Sprintf("(load-file %q)", path))
	require.Equal(t, "nil", result.Inspect())

	assert.Equal(t, "21", ev.EvalString("(triple 7)").Inspect())
	assert.Equal(t, "true", ev.EvalString("loaded").Inspect())
}

func TestRunFile(t *testing.T) {
	ev := newTestEvaluator()
	path := filepath.Join(t.TempDir(), "main.wisp")

	require.NoError(t, os.WriteFile(path, []byte("(def! x (+ 20 22))"), 0644))

	result := ev.RunFile(path)
	require.NotEqual(t, object.ERROR_OBJ, result.Type(), result.Inspect())
	assert.Equal(t, "42", ev.EvalString("x").Inspect())
}
