package main

import "github.com/frahmantamala/project-ledger/cmd"

func main() {
	cmd.Execute()
}
