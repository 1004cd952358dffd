package main

import "github.com/rsh-shell/rsh/cmd"

func main() {
	cmd.Execute()
}
