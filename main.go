package main

import (
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/docker-registry/cmd"
)

// init configures the initial logging level for docker-registry.
//
// It sets logrus to InfoLevel by default, ensuring basic operational logs
// are visible unless overridden by flags like --verbose or --log-level in cmd.
func init() {
	logrus.SetLevel(logrus.InfoLevel)
}

// main serves as the entry point for the docker-registry application.
//
// It delegates execution to the cmd package, which handles CLI setup,
// flag parsing, and the registry commands.
func main() {
	cmd.Execute()
}
