package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriter_WritesLinesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	w, err := NewFileWriter(path, 32*1024)
	require.NoError(t, err)

	_, err = w.Write([]byte("first line\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second line\n"))
	require.NoError(t, err)

	// Give the drain goroutine a moment to pick the lines up.
	time.Sleep(50 * time.Millisecond)
	w.Close()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line\n", string(content))
	assert.Zero(t, w.Dropped())
}

func TestFileWriter_WriteNeverBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	w, err := NewFileWriter(path, 32*1024)
	require.NoError(t, err)
	defer w.Close()

	// The writer keeps accepting lines even when nothing drains them fast
	// enough, dropping the overflow instead of blocking.
	for i := 0; i < writerQueueSize*2; i++ {
		n, err := w.Write([]byte("line\n"))
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	}
}

func TestStdoutHook_MirrorsFormattedEntry(t *testing.T) {
	var out bytes.Buffer
	hook := &StdoutHook{out: &out}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(&bytes.Buffer{})
	logger.AddHook(hook)

	logger.Info("configuration saved")

	assert.Contains(t, out.String(), "configuration saved")
}
