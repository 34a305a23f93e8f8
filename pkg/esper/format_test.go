package esper

import "testing"

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		seconds uint32
		want    string
	}{
		{0, "0d00h00m00s"},
		{59, "0d00h00m59s"},
		{3661, "0d01h01m01s"},
		{90000, "1d01h00m00s"},
	}
	for _, c := range cases {
		if got := FormatUptime(c.seconds); got != c.want {
			t.Errorf("FormatUptime(%d) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

func TestFormatVarOptions(t *testing.T) {
	o := VarOptionReadable | VarOptionStorable
	got := FormatVarOptions(o)
	// R W H S L N -> set, unset, unset, set, unset, unset
	want := "R--S--"
	if got != want {
		t.Errorf("FormatVarOptions = %q, want %q", got, want)
	}
}

func TestFormatVarStatus(t *testing.T) {
	s := VarStatusLocked | VarStatusValidated
	got := FormatVarStatus(s)
	want := "T--V"
	if got != want {
		t.Errorf("FormatVarStatus = %q, want %q", got, want)
	}
}
