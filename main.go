package main

import "github.com/lavai-rg/telegram-automation/cmd"

func main() {
	cmd.Execute()
}
