// SPDX-License-Identifier: MPL-2.0

// acp is a content package manager for project artifacts.
package main

import cmd "acp-cli/cmd/acp"

func main() {
	cmd.Execute()
}
