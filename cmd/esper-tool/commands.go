package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/esper-tool/esper/pkg/esper"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: colorableStderr}).Level(level).With().Timestamp().Logger()
}

// dialFromURL parses url per the "[auth_token@]ip[:port]" grammar and opens
// a Client to it.
func dialFromURL(rawurl string, timeout time.Duration, verbose bool) (*esper.Client, error) {
	u, err := esper.ParseURL(rawurl)
	if err != nil {
		return nil, err
	}
	opts := []esper.ClientOption{
		esper.WithCallTimeout(timeout),
		esper.WithLogger(newLogger(verbose)),
	}
	if u.AuthToken != nil {
		opts = append(opts, esper.WithAuthToken(*u.AuthToken))
	}
	return esper.Dial(u.IP, u.Port, opts...)
}

// parseVariableType maps a type name (as esper.VariableType.String() renders
// it, e.g. "uint32") back to its constant.
func parseVariableType(name string) (esper.VariableType, error) {
	name = strings.ToLower(name)
	for t := esper.VariableType(0); t <= esper.TypeFloat64; t++ {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown variable type %q", name)
}

func cmdPing(args []string) error {
	fs := pflag.NewFlagSet("ping", pflag.ContinueOnError)
	count := fs.IntP("count", "c", 4, "number of echo requests to send (max 1024)")
	size := fs.IntP("size", "s", 32, "payload size in bytes (max 65535)")
	timeout := fs.DurationP("timeout", "t", envDuration("TIMEOUT", 2*time.Second), "per-request timeout")
	envFile := fs.String("env-file", "", "load ESPER_* defaults from this file")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *envFile != "" {
		if err := loadEnvFile(*envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		if !fs.Changed("timeout") {
			*timeout = envDuration("TIMEOUT", *timeout)
		}
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: ping [options] <url>")
	}
	if *count < 1 || *count > 1024 {
		return fmt.Errorf("count must be between 1 and 1024")
	}
	if *size < 0 || *size > 65535 {
		return fmt.Errorf("size must be between 0 and 65535")
	}

	c, err := dialFromURL(fs.Arg(0), *timeout, *verbose)
	if err != nil {
		return err
	}
	defer c.Close()

	payload := make([]byte, *size)
	var sent, received int
	var totalRTT time.Duration
	for i := 0; i < *count; i++ {
		start := time.Now()
		sent++
		if _, err := c.Ping(payload); err != nil {
			fmt.Printf("seq=%d error=%v\n", i, err)
			continue
		}
		rtt := time.Since(start)
		totalRTT += rtt
		received++
		fmt.Printf("seq=%d time=%s\n", i, rtt)
	}

	loss := 0.0
	if sent > 0 {
		loss = 100 * float64(sent-received) / float64(sent)
	}
	fmt.Printf("\n--- ping statistics ---\n%d sent, %d received, %.1f%% loss\n", sent, received, loss)
	if received > 0 {
		fmt.Printf("average round-trip: %s\n", totalRTT/time.Duration(received))
	}
	return nil
}

func cmdRead(args []string) error {
	fs := pflag.NewFlagSet("read", pflag.ContinueOnError)
	offset := fs.Uint32P("offset", "o", 0, "starting element offset")
	timeout := fs.DurationP("timeout", "t", envDuration("TIMEOUT", 2*time.Second), "request timeout")
	envFile := fs.String("env-file", "", "load ESPER_* defaults from this file")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *envFile != "" {
		if err := loadEnvFile(*envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		if !fs.Changed("timeout") {
			*timeout = envDuration("TIMEOUT", *timeout)
		}
	}
	if fs.NArg() != 4 {
		return fmt.Errorf("usage: read [options] <url> <path> <count> <type>")
	}

	count, err := strconv.ParseUint(fs.Arg(2), 0, 32)
	if err != nil {
		return fmt.Errorf("bad count: %w", err)
	}
	typ, err := parseVariableType(fs.Arg(3))
	if err != nil {
		return err
	}

	c, err := dialFromURL(fs.Arg(0), *timeout, *verbose)
	if err != nil {
		return err
	}
	defer c.Close()

	vid, err := c.GetVarID(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if vid == 0 {
		return fmt.Errorf("no variable at path %q", fs.Arg(1))
	}

	records, err := c.ReadVar(vid, *offset, uint32(count), typ)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("offset=%d type=%s data=%v\n", r.Offset, r.Type, r.Data)
	}
	return nil
}

func cmdWrite(args []string) error {
	fs := pflag.NewFlagSet("write", pflag.ContinueOnError)
	timeout := fs.DurationP("timeout", "t", envDuration("TIMEOUT", 2*time.Second), "request timeout")
	envFile := fs.String("env-file", "", "load ESPER_* defaults from this file")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *envFile != "" {
		if err := loadEnvFile(*envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		if !fs.Changed("timeout") {
			*timeout = envDuration("TIMEOUT", *timeout)
		}
	}
	if fs.NArg() < 5 {
		return fmt.Errorf("usage: write [options] <url> <path> <offset> <type> <value...>")
	}

	offset, err := strconv.ParseUint(fs.Arg(2), 0, 32)
	if err != nil {
		return fmt.Errorf("bad offset: %w", err)
	}
	typ, err := parseVariableType(fs.Arg(3))
	if err != nil {
		return err
	}
	values, err := parseVariantArgs(typ, fs.Args()[4:])
	if err != nil {
		return err
	}

	c, err := dialFromURL(fs.Arg(0), *timeout, *verbose)
	if err != nil {
		return err
	}
	defer c.Close()

	vid, err := c.GetVarID(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if vid == 0 {
		return fmt.Errorf("no variable at path %q", fs.Arg(1))
	}

	if err := c.WriteVar(vid, uint32(offset), typ, values); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func parseVariantArgs(typ esper.VariableType, raw []string) ([]esper.Variant, error) {
	switch typ {
	case esper.TypeASCII:
		return []esper.Variant{esper.ASCIIVariant(strings.Join(raw, " "))}, nil
	case esper.TypeBool:
		out := make([]esper.Variant, len(raw))
		for i, s := range raw {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("bad bool %q: %w", s, err)
			}
			out[i] = esper.BoolVariant(b)
		}
		return out, nil
	case esper.TypeFloat32, esper.TypeFloat64:
		out := make([]esper.Variant, len(raw))
		for i, s := range raw {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("bad float %q: %w", s, err)
			}
			out[i] = esper.FloatVariant(v)
		}
		return out, nil
	case esper.TypeUint8, esper.TypeUint16, esper.TypeUint32, esper.TypeUint64:
		out := make([]esper.Variant, len(raw))
		for i, s := range raw {
			v, err := strconv.ParseUint(s, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("bad uint %q: %w", s, err)
			}
			out[i] = esper.UintVariant(v)
		}
		return out, nil
	default:
		out := make([]esper.Variant, len(raw))
		for i, s := range raw {
			v, err := strconv.ParseInt(s, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("bad int %q: %w", s, err)
			}
			out[i] = esper.IntVariant(v)
		}
		return out, nil
	}
}

func cmdDiscover(args []string) error {
	fs := pflag.NewFlagSet("discover", pflag.ContinueOnError)
	timeout := fs.DurationP("timeout", "t", envDuration("DISCOVER_TIMEOUT", 2*time.Second), "how long to collect responses")
	deviceType := fs.String("device-type", "", "filter by device type")
	deviceName := fs.String("device-name", "", "filter by device name")
	deviceRev := fs.String("device-rev", "", "filter by device revision")
	hardwareID := fs.String("hardware-id", "", "filter by hardware id")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := esper.DiscoveryFilter{
		DeviceType: *deviceType,
		DeviceName: *deviceName,
		DeviceRev:  *deviceRev,
		HardwareID: *hardwareID,
	}

	devices, err := esper.Discover(filter, *timeout, newLogger(*verbose))
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("no devices found")
		return nil
	}
	for _, d := range devices {
		fmt.Printf("%s:%d  hw=%s  type=%s  name=%s  rev=%s  uptime=%s\n",
			d.IPv4, d.Port, d.HardwareID, d.Type, d.Name, d.Revision, esper.FormatUptime(d.Uptime))
	}
	return nil
}
