package parser

import "testing"

func TestParseSimpleCommand(t *testing.T) {
	p, ok := Parse("echo hello world")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if len(p.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(p.Commands))
	}
	want := []string{"echo", "hello", "world"}
	got := p.Commands[0].Argv
	if len(got) != len(want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("argv[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseBlankLine(t *testing.T) {
	if _, ok := Parse("   "); ok {
		t.Fatalf("expected blank line to fail to parse")
	}
	if _, ok := Parse(""); ok {
		t.Fatalf("expected empty line to fail to parse")
	}
}

func TestParsePipeline(t *testing.T) {
	p, ok := Parse("cat file.txt | grep foo | wc -l")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if len(p.Commands) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(p.Commands))
	}
	if p.Commands[1].Argv[0] != "grep" {
		t.Fatalf("stage 2 argv[0] = %q, want grep", p.Commands[1].Argv[0])
	}
}

func TestParseRedirections(t *testing.T) {
	cases := []struct {
		line         string
		wantOut      string
		wantAppend   bool
		wantErr      string
		wantIn       string
		wantArgvHead string
	}{
		{"sort > out.txt", "out.txt", false, "", "", "sort"},
		{"sort >out.txt", "out.txt", false, "", "", "sort"},
		{"sort >> out.txt", "out.txt", true, "", "", "sort"},
		{"sort >>out.txt", "out.txt", true, "", "", "sort"},
		{"cmd 2> err.txt", "", false, "err.txt", "", "cmd"},
		{"cmd 2>err.txt", "", false, "err.txt", "", "cmd"},
		{"cmd < in.txt", "", false, "", "in.txt", "cmd"},
		{"cmd <in.txt", "", false, "", "in.txt", "cmd"},
	}
	for _, c := range cases {
		p, ok := Parse(c.line)
		if !ok {
			t.Fatalf("%q: expected parse to succeed", c.line)
		}
		cmd := p.Commands[0]
		if cmd.RedirectOut != c.wantOut || cmd.AppendOut != c.wantAppend {
			t.Errorf("%q: RedirectOut=%q AppendOut=%v, want %q %v", c.line, cmd.RedirectOut, cmd.AppendOut, c.wantOut, c.wantAppend)
		}
		if cmd.RedirectErr != c.wantErr {
			t.Errorf("%q: RedirectErr=%q, want %q", c.line, cmd.RedirectErr, c.wantErr)
		}
		if cmd.RedirectIn != c.wantIn {
			t.Errorf("%q: RedirectIn=%q, want %q", c.line, cmd.RedirectIn, c.wantIn)
		}
		if cmd.Argv[0] != c.wantArgvHead {
			t.Errorf("%q: argv[0]=%q, want %q", c.line, cmd.Argv[0], c.wantArgvHead)
		}
	}
}

func TestParseBackground(t *testing.T) {
	for _, line := range []string{"sleep 5 &", "sleep 5&"} {
		p, ok := Parse(line)
		if !ok {
			t.Fatalf("%q: expected parse to succeed", line)
		}
		if !p.Background {
			t.Errorf("%q: expected Background to be true", line)
		}
		if len(p.Commands[0].Argv) != 2 || p.Commands[0].Argv[0] != "sleep" || p.Commands[0].Argv[1] != "5" {
			t.Errorf("%q: argv = %v, want [sleep 5]", line, p.Commands[0].Argv)
		}
	}
}

// A leading "&" carries no special meaning under spec.md's literal
// background rule (only a token equal to "&" or ending in "&" counts),
// so it stays part of the word instead of backgrounding the job.
func TestParseLeadingAmpersandIsNotBackground(t *testing.T) {
	p, ok := Parse("&sleep 5")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if p.Background {
		t.Errorf("expected Background to be false for a leading '&'")
	}
	if p.Commands[0].Argv[0] != "&sleep" {
		t.Errorf("argv[0] = %q, want %q", p.Commands[0].Argv[0], "&sleep")
	}
}

func TestParseEmptyStageFails(t *testing.T) {
	if _, ok := Parse("echo foo | | echo bar"); ok {
		t.Fatalf("expected empty pipeline stage to fail to parse")
	}
}
