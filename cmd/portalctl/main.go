package main

import "github.com/mcoot/communityportal/internal/cli"

func main() {
	cli.Execute()
}
