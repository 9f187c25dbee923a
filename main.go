package main

import "grimm.is/ruleforge/cmd"

func main() {
	cmd.Execute()
}
