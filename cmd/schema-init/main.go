package main

import "github.com/dataharvester/dataharvester/backend/go-services/internal/cli"

func main() {
	cli.Execute()
}
