// Command dayplan serves and administers per-user daily task lists.
package main

import "github.com/mesh-intelligence/dayplan/internal/cli"

func main() {
	cli.Execute()
}
