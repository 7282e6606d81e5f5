// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/offbyone/aws-cdk/cmd/ubergen"

func main() {
	cmd.Execute()
}
