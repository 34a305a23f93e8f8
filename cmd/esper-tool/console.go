package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/esper-tool/esper/pkg/esper"
	"github.com/spf13/pflag"
)

// cmdConsole is a minimal line-oriented console over a connected endpoint's
// namespace: cd/ls/pwd/info/read/write/uptime/endpoint/timeout/quit. A real
// shell's tab-completion and input-editing loop is an external
// collaborator; this is only enough of a REPL to exercise the core
// contracts interactively.
func cmdConsole(args []string) error {
	fs := pflag.NewFlagSet("console", pflag.ContinueOnError)
	timeout := fs.DurationP("timeout", "t", envDuration("TIMEOUT", 2*time.Second), "request timeout")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: console [options] <url>")
	}

	c, err := dialFromURL(fs.Arg(0), *timeout, *verbose)
	if err != nil {
		return err
	}
	defer c.Close()

	ns, err := buildNamespace(c)
	if err != nil {
		return fmt.Errorf("build namespace: %w", err)
	}

	currentGID := uint32(1)
	callTimeout := *timeout
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("%s> ", ns.GetPathFromGID(currentGID))
		if !scanner.Scan() {
			fmt.Println()
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, rest := fields[0], fields[1:]

		switch cmd {
		case "quit", "exit":
			return nil
		case "pwd":
			fmt.Println(ns.GetPathFromGID(currentGID))
		case "cd":
			path := "/"
			if len(rest) > 0 {
				path = rest[0]
			}
			gid := ns.GetGIDFromPath(path, currentGID)
			if gid == 0 {
				fmt.Printf("no such group: %s\n", path)
				continue
			}
			currentGID = gid
		case "ls":
			path := "."
			if len(rest) > 0 {
				path = rest[0]
			}
			for _, m := range ns.Complete(path, "", currentGID, true) {
				fmt.Println(m)
			}
		case "info":
			if len(rest) != 1 {
				fmt.Println("usage: info <path>")
				continue
			}
			if err := consoleInfo(c, ns, currentGID, rest[0]); err != nil {
				fmt.Println("error:", err)
			}
		case "read":
			if len(rest) != 1 {
				fmt.Println("usage: read <path>")
				continue
			}
			if err := consoleRead(c, ns, currentGID, rest[0]); err != nil {
				fmt.Println("error:", err)
			}
		case "write":
			if len(rest) < 2 {
				fmt.Println("usage: write <path> <value...>")
				continue
			}
			if err := consoleWrite(c, ns, currentGID, rest[0], rest[1:]); err != nil {
				fmt.Println("error:", err)
			}
		case "uptime":
			ep, err := c.ReadEndpointInfo(0)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println(esper.FormatUptime(ep.Uptime))
		case "endpoint":
			ep, err := c.ReadEndpointInfo(0)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Printf("name=%s type=%s rev=%s hw=%s groups=%d vars=%d uptime=%s\n",
				ep.DeviceName, ep.DeviceType, ep.DeviceRev, ep.HardwareID, ep.NumGroups, ep.NumVars, esper.FormatUptime(ep.Uptime))
		case "timeout":
			if len(rest) != 1 {
				fmt.Printf("current timeout: %s\n", callTimeout)
				continue
			}
			secs, err := strconv.ParseFloat(rest[0], 64)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			callTimeout = time.Duration(secs * float64(time.Second))
			c.SetTimeout(callTimeout)
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
}

func buildNamespace(c *esper.Client) (*esper.Namespace, error) {
	ep, err := c.ReadEndpointInfo(0)
	if err != nil {
		return nil, fmt.Errorf("read endpoint info: %w", err)
	}

	var groups []esper.GroupInfo
	for i := uint32(1); i <= ep.NumGroups; i++ {
		g, err := c.ReadGroupInfo(i, 0)
		if err != nil {
			return nil, fmt.Errorf("read group %d: %w", i, err)
		}
		groups = append(groups, *g)
	}

	var vars []esper.VariableInfo
	for i := uint32(1); i <= ep.NumVars; i++ {
		v, err := c.ReadVarInfo(i, 0)
		if err != nil {
			return nil, fmt.Errorf("read var %d: %w", i, err)
		}
		vars = append(vars, *v)
	}

	return esper.NewNamespace(groups, vars), nil
}

func consoleInfo(c *esper.Client, ns *esper.Namespace, currentGID uint32, path string) error {
	if vid := ns.GetVIDFromPath(path, currentGID); vid != 0 {
		info, err := c.ReadVarInfo(vid, 0)
		if err != nil {
			return err
		}
		fmt.Printf("vid=%d gid=%d key=%s type=%s elements=%d option=%s status=%s\n",
			info.VID, info.GID, info.Key, info.Type, info.NumElements,
			esper.FormatVarOptions(info.Option), esper.FormatVarStatus(info.Status))
		return nil
	}
	if gid := ns.GetGIDFromPath(path, currentGID); gid != 0 {
		info, err := c.ReadGroupInfo(gid, 0)
		if err != nil {
			return err
		}
		fmt.Printf("gid=%d pid=%d key=%s groups=%d vars=%d status=%s\n",
			info.GID, info.PID, info.Key, info.NumGroups, info.NumVars, esper.FormatVarStatus(info.Status))
		return nil
	}
	return fmt.Errorf("no such path: %s", path)
}

// consoleRead reads all of the variable's declared elements using its own
// declared type, per the interactive shell's "read [path]" contract.
func consoleRead(c *esper.Client, ns *esper.Namespace, currentGID uint32, path string) error {
	vid := ns.GetVIDFromPath(path, currentGID)
	if vid == 0 {
		return fmt.Errorf("no variable at %s", path)
	}
	info, err := c.ReadVarInfo(vid, 0)
	if err != nil {
		return fmt.Errorf("read var info: %w", err)
	}
	records, err := c.ReadVar(vid, 0, info.NumElements, info.Type)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("offset=%d data=%v\n", r.Offset, r.Data)
	}
	return nil
}

// consoleWrite honors the variable's own declared type (read via
// ReadVarInfo) rather than requiring the caller to name one, per the
// interactive shell's "write path value" contract.
func consoleWrite(c *esper.Client, ns *esper.Namespace, currentGID uint32, path string, values []string) error {
	vid := ns.GetVIDFromPath(path, currentGID)
	if vid == 0 {
		return fmt.Errorf("no variable at %s", path)
	}
	info, err := c.ReadVarInfo(vid, 0)
	if err != nil {
		return fmt.Errorf("read var info: %w", err)
	}
	variants, err := parseVariantArgs(info.Type, values)
	if err != nil {
		return err
	}
	return c.WriteVar(vid, 0, info.Type, variants)
}
