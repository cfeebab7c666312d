// Command authnctl inspects and verifies bearer tokens.
//
//	authnctl decode <token>
//	authnctl verify --config authn.yaml <token>
//	authnctl verify --domain-id d1 --workspace-id w1 - < token.txt
//
// verify runs the full verification pipeline against a live identity
// service and prints the resulting authorization context as JSON.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
