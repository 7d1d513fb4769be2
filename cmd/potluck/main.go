// Command potluck edits, serves and renders rich text documents.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "potluck:", err)
		os.Exit(1)
	}
}
