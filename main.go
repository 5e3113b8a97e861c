package main

import "github.com/KaramelBytes/tidyframe-cli/cmd"

func main() {
	cmd.Execute()
}
