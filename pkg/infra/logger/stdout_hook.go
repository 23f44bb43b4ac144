package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// StdoutHook mirrors every entry to standard output so the container log
// stream carries the same JSON lines as the service log file.
type StdoutHook struct {
	out io.Writer
}

func NewStdoutHook() *StdoutHook {
	return &StdoutHook{out: os.Stdout}
}

func (h *StdoutHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.out.Write(line)
	return err
}

func (h *StdoutHook) Levels() []logrus.Level {
	return logrus.AllLevels
}
