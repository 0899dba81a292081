// Package logging sets up the shared logrus logger. Other packages log through
// the logrus standard logger, so this only needs to run once from main.
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init configures the standard logrus logger. logFile may be empty.
func Init(level, logFile string, debug bool) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if debug && lvl < logrus.DebugLevel {
		lvl = logrus.DebugLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&formatter.Formatter{
		NoColors:        logFile != "",
		TimestampFormat: "02 Jan 06 - 15:04:05",
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, s[len(s)-1])
		},
	})
	logrus.SetReportCaller(debug)
	logrus.SetOutput(output(logFile))
}

func output(logFile string) io.Writer {
	if logFile == "" {
		return os.Stderr
	}
	return io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   logFile,
		LocalTime:  true,
		Compress:   true,
		MaxSize:    100, // MB
		MaxAge:     7,
		MaxBackups: 3,
	})
}
