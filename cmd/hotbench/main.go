package main

import (
	"os"

	"github.com/hhkbp2/hotbench"
	"github.com/hhkbp2/hotbench/binding"
)

func main() {
	binding.AddBindings()
	os.Exit(hotbench.Main())
}
