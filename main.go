package main

import "github.com/theirongolddev/gptrecap/cmd"

func main() {
	cmd.Execute()
}
