package main

import "chime/cmd"

func main() {
	cmd.Execute()
}
