package main

import (
	"log"
	"os"

	"quizbot/internal/cli"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime)

	if err := cli.Execute(); err != nil {
		log.Fatalf("quizbot: %v", err)
	}
}
