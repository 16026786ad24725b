// Package logger configures the process-wide logrus logger.
package logger

import (
    "os"
    "strings"

    "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger: JSON lines outside of
// development, coloured text with full timestamps inside it.  An unknown
// level falls back to info.
func Setup(env, level string) *logrus.Logger {
    l := logrus.StandardLogger()
    l.SetOutput(os.Stdout)
    switch strings.ToLower(env) {
    case "development", "dev", "test", "":
        l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
    default:
        l.SetFormatter(&logrus.JSONFormatter{})
    }
    lvl, err := logrus.ParseLevel(level)
    if err != nil {
        lvl = logrus.InfoLevel
    }
    l.SetLevel(lvl)
    return l
}
