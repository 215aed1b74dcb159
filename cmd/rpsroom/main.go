package main

import (
	"github.com/playrps/rpsroom/internal/cli"
)

func main() {
	cli.Execute()
}
