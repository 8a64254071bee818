// Package fileutil holds small output helpers shared by the CLI commands.
package fileutil

import (
	"encoding/json"
	"os"
)

// PrintJSON writes a value to stdout as indented JSON, for the --json
// flag of the inspect-style commands.
func PrintJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
