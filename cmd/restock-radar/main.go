package main

import "github.com/restock-radar/restock-radar/cmd/restock-radar/cmd"

func main() {
	cmd.Execute()
}
