package main

import "github.com/ndhoang91/sitecheck-cli/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
