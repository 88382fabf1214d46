package main

import "github.com/stuoningur/loretta/cmd"

func main() {
	cmd.Execute()
}
