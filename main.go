package main

import "github.com/xiaot623/companion/cmd"

func main() {
	cmd.Execute()
}
