package main

import "github.com/veilock/veilock/cmd/veilock/commands"

func main() {
	commands.Execute()
}
