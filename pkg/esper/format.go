package esper

import "fmt"

// FormatUptime renders seconds as a "<d>d<hh>h<mm>m<ss>s" duration string,
// matching console.py's do_uptime rendering.
func FormatUptime(seconds uint32) string {
	d := seconds / 86400
	h := (seconds % 86400) / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%dd%02dh%02dm%02ds", d, h, m, s)
}

// varOptionFlags lists the fixed-column order info rendering shows variable
// options in (console.py's do_info column layout).
var varOptionFlags = []struct {
	bit VarOption
	ch  byte
}{
	{VarOptionReadable, 'R'},
	{VarOptionWritable, 'W'},
	{VarOptionHidden, 'H'},
	{VarOptionStorable, 'S'},
	{VarOptionLockable, 'L'},
	{VarOptionWindowed, 'N'},
}

// FormatVarOptions renders o as a fixed-width flag string, one column per
// known option bit, '-' where the bit is unset.
func FormatVarOptions(o VarOption) string {
	buf := make([]byte, len(varOptionFlags))
	for i, f := range varOptionFlags {
		if o.Has(f.bit) {
			buf[i] = f.ch
		} else {
			buf[i] = '-'
		}
	}
	return string(buf)
}

var varStatusFlags = []struct {
	bit VarStatus
	ch  byte
}{
	{VarStatusLocked, 'T'},
	{VarStatusStored, 'S'},
	{VarStatusLogged, 'L'},
	{VarStatusValidated, 'V'},
}

// FormatVarStatus renders s as a fixed-width flag string, one column per
// known status bit, '-' where the bit is unset.
func FormatVarStatus(s VarStatus) string {
	buf := make([]byte, len(varStatusFlags))
	for i, f := range varStatusFlags {
		if s.Has(f.bit) {
			buf[i] = f.ch
		} else {
			buf[i] = '-'
		}
	}
	return string(buf)
}
