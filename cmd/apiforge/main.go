package main

import (
	"fmt"
	"os"

	"github.com/forgekit/apiforge/internal/cli"
	"github.com/forgekit/apiforge/internal/ir"
)

func main() {
	if err := cli.Execute(); err != nil {
		if iss, ok := ir.AsIssues(err); ok {
			fmt.Fprintf(os.Stderr, "%d validation error(s):\n%s\n", len(iss), iss.Error())
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
