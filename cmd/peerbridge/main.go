package main

import "github.com/zeusync/peerbridge/cmd/peerbridge/cmd"

func main() {
	cmd.Execute()
}
