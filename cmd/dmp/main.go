package main

import (
	"github.com/cloudtechnologies/dmp-go/cmd/dmp/cmd"
)

func main() {
	cmd.Execute()
}
