package main

import (
	"os"
	"runtime/debug"

	"github.com/meadowhq/mdwd/cmd"
	"github.com/meadowhq/mdwd/logx"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			_ = logx.Errorf("DAEMON CRASHED: %v\n%s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	cmd.Execute()
}
