// envguard gates AI agent tool calls that would expose credentials.
package main

import "github.com/ppiankov/envguard/internal/cli"

func main() {
	cli.Execute()
}
