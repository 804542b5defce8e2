package main

import (
	"os"

	"github.com/schmitthub/fixture/internal/fixture"
)

func main() {
	os.Exit(fixture.Main())
}
