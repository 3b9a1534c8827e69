package main

import "github.com/AvaProtocol/aa-gasbench/cmd"

func main() {
	cmd.Execute()
}
