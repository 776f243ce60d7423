package main

import (
	"github.com/jaydeluca/collector-watcher/pkg/cli"
)

func main() {
	cli.Execute()
}
