package main

import "github.com/anonto42/yatube/backend/cmd/manage/commands"

func main() {
	commands.Execute()
}
