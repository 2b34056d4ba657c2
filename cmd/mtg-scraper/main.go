package main

import "github.com/barrins-project/mtg-scraper/internal/cli"

func main() {
	cli.Execute()
}
