package main

import "github.com/samsaffron/notion-llm/cmd"

func main() {
	cmd.Execute()
}
