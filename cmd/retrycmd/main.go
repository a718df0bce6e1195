// Command retrycmd runs a shell command until it succeeds, retrying on
// timeouts and failed exits.
package main

import (
	"fmt"
	"os"
)

func main() {
	code, err := execute(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}
