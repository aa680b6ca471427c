package main

import (
	"log"

	"github.com/tigrisdata/inviter/cmd"
)

func main() {
	if err := cmd.RootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
