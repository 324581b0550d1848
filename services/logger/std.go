package logsvc

import (
	"log"

	"github.com/aulatech/aula/core"
)

// StdLogger logs to the standard library logger only. Used in development
// and tests where error reporting is not wired.
type StdLogger struct {
	std     *log.Logger
	enabled bool
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger) *StdLogger {
	return &StdLogger{std: std, enabled: true}
}

func (l *StdLogger) Enable(enabled bool) { l.enabled = enabled }

func (l *StdLogger) Info(msg string, args ...interface{}) {
	if !l.enabled {
		return
	}
	l.print("INFO: "+msg, args)
}

func (l *StdLogger) Error(msg string, err error, args ...interface{}) {
	if !l.enabled {
		return
	}
	l.std.Printf("ERROR: %s: %+v\n", msg, err)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l *StdLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}
