package main

import "github.com/memscope/cmd/memscope/cmd"

func main() {
	cmd.Execute()
}
