// Command ir-console is a terminal front end to the IR tracker: it logs in
// against the IR API, keeps the session in a local SQLite file and lists, watches
// and acts on records.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional; the environment wins over it
	_ = godotenv.Load()

	app := &console{}
	os.Exit(execute(app, newRootCommand(app), os.Stderr))
}

// execute runs root and releases the console before the exit code is returned
func execute(app *console, root *cobra.Command, stderr io.Writer) int {
	err := root.Execute()
	app.close()

	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}
