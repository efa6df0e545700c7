// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Formatter writes one line per entry:
//
//	2026-03-23 12:16:42 INFO processor.go:97 record type processed record_type=app.User records=10
type Formatter struct{}

func (f *Formatter) Format(entry *log.Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
	b.WriteByte(' ')
	b.WriteString(strings.ToUpper(entry.Level.String()))
	if entry.HasCaller() {
		fmt.Fprintf(&b, " %s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	for _, k := range slices.Sorted(maps.Keys(entry.Data)) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// Options selects where and how much to log.
type Options struct {
	Level string // logrus level name; empty means "info"
	File  string // rotated log file; empty logs to Console
	// Console receives log output when File is empty.
	Console io.Writer
}

// Init configures the standard logrus logger. The returned closer releases
// the log file, if any.
func Init(opts Options) (io.Closer, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		l, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}
	log.SetLevel(level)
	log.SetFormatter(&Formatter{})

	if opts.File == "" {
		out := opts.Console
		if out == nil {
			out = io.Discard
		}
		log.SetReportCaller(false)
		log.SetOutput(out)
		return io.NopCloser(nil), nil
	}

	// lumberjack creates the directory and file on first write.
	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    200, // MB before rotation
		MaxBackups: 10,
	}
	log.SetReportCaller(true)
	log.SetOutput(rotator)
	return rotator, nil
}

// RedactArgs returns a copy of args with connection strings replaced, for
// logging the command line.
func RedactArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out); i++ {
		switch {
		case out[i] == "--dsn" && i+1 < len(out):
			out[i+1] = "XXX"
			i++
		case strings.HasPrefix(out[i], "--dsn="):
			out[i] = "--dsn=XXX"
		}
	}
	return out
}
