// Command depersonalize replaces personal data in a database with generated
// values.
package main

import "github.com/mesh-intelligence/depersonalizer/internal/cli"

func main() {
	cli.Execute()
}
