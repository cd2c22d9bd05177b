package main

import "github.com/milyonersgroup/catchthespy/cmd"

func main() {
	cmd.Execute()
}
