// Command esper-tool is a thin CLI front-end over pkg/esper: ping, read,
// write, and discover a device, or drop into a minimal interactive console.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "ping":
		err = cmdPing(args)
	case "read":
		err = cmdRead(args)
	case "write":
		err = cmdWrite(args)
	case "discover":
		err = cmdDiscover(args)
	case "console":
		err = cmdConsole(args)
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s <command> [options] [args]

commands:
  ping      <url>                      send an echo request
  read      <url> <path> <count> <type> read elements from a variable
  write     <url> <path> <offset> <type> <value...> write elements to a variable
  discover  [options]                  broadcast for devices on the network
  console   <url>                      open a minimal interactive console

run "%s <command> -h" for command-specific options
`, os.Args[0], os.Args[0])
}
