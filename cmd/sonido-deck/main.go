// Command sonido-deck analyzes tracks and plans harmonic DJ sets.
//
// Usage:
//
//	sonido-deck [flags] <command> [args]
//
// Commands:
//
//	analyze     - Tempo, key and energy of audio files
//	batch       - Analyze a folder into a metadata sidecar
//	chain       - Order a sidecar into harmonic playlists
//	compatible  - Keys that mix with a Camelot code
//	guide       - Transition advice for an ordered sidecar
//	validate    - Quality report for a sidecar
//	serve       - Run the HTTP API
//	tool        - Call the tool interface from the shell
package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-deck/cmd/sonido-deck/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
