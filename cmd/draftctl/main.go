// Command draftctl inspects and manages saved form drafts.
package main

import "github.com/mesh-intelligence/formdraft/internal/cli"

func main() {
	cli.Execute()
}
