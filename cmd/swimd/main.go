// Command swimd runs one member of a SWIM group over real UDP sockets.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("swimd: exiting")
		os.Exit(1)
	}
}
