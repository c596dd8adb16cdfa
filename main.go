package main

import "github.com/emrgen/lexicon/cmd"

func main() {
	cmd.Execute()
}
