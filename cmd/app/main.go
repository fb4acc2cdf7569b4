package main

import "agencyctl/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
