// Command aicpctl is the control plane's CLI entrypoint.
package main

import "github.com/aicp/controlplane/internal/cli"

func main() {
	cli.Execute()
}
