package main

import (
	"os"

	"github.com/wikilake/hopcheck/internal/cli"
)

func main() {
	os.Exit(int(cli.Run()))
}
