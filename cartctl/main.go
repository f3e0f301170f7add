// Command cartctl manages a cart from the terminal. The cart lives in the
// configured storage (a JSON file by default) so it survives between runs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
