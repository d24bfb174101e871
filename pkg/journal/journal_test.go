package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "messages.txt")
	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.AppendLine("first"))
	assert.Equal(t, []string{"first"}, readLines(t, path))
}

func TestAppendMessageFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.txt")
	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	j.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	require.NoError(t, j.AppendMessage("127.0.0.1:5000", "hello\nthere"))

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "[2024-01-02T03:04:05Z] 127.0.0.1:5000: hello there", lines[0])
}

func TestAppendJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.txt")
	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.AppendJSON(map[string]int{"a": 1}))
	require.NoError(t, j.AppendJSON(map[string]int{"a": 2}))
	assert.Equal(t, []string{`{"a":1}`, `{"a":2}`}, readLines(t, path))
}

func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.txt")
	j, err := Open(path)
	require.NoError(t, err)

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = j.AppendLine(fmt.Sprintf("writer-%d-line-%d-%s", w, i, strings.Repeat("x", 64)))
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, j.Close())

	lines := readLines(t, path)
	require.Len(t, lines, writers*perWriter)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "writer-"), l)
		assert.True(t, strings.HasSuffix(l, strings.Repeat("x", 64)), l)
	}
}

func TestAppendAfterClose(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "closed.txt"))
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	assert.ErrorIs(t, j.AppendLine("late"), os.ErrClosed)
}
