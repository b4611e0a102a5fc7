package main

import (
	cmd "github.com/kerbaras/tilegrab/cmd/tilegrab"
)

func main() {
	cmd.Execute()
}
