// Command pmcopilot is a conversational co-pilot that turns a rough product idea
// into a problem brief by asking diagnostic questions.
package main

import (
	"fmt"
	"os"

	"github.com/gupta362/pm-agent-v2/pkg/logx"
)

func main() {
	err := newRootCmd().Execute()
	logx.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
