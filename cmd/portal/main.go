// Command portal runs the members-only content portal and its operator tools.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cmdRoot = &cobra.Command{
	Use:           "portal",
	Short:         "Members-only content portal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithError(err).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func main() {
	cmdRoot.AddCommand(cmdServe, cmdSeed, cmdRepairSQL, cmdGrantAdmin)
	if err := cmdRoot.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
