// Package parser turns a trimmed input line into a Pipeline: a sequence of
// Commands connected by "|", each carrying its own redirections, plus a
// background flag. It does not expand variables or evaluate anything -
// that happens at launch time.
package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Command is one stage of a pipeline: an argv plus the redirections that
// apply to it. RedirectIn/RedirectOut/RedirectErr are empty when absent.
type Command struct {
	Argv        []string
	RedirectIn  string
	RedirectOut string
	RedirectErr string
	AppendOut   bool
}

// Pipeline is the parsed form of one input line.
type Pipeline struct {
	Raw        string
	Background bool
	Commands   []*Command
}

// rawPipeline/rawStage are participle's view of the line: just the
// whitespace-split word groups on either side of "|". Everything past
// that - redirections, the background marker, argv - is classified by
// hand below, the same two-level split parse.c does with strtok_r over
// "|" and then over whitespace.
type rawPipeline struct {
	Stages []*rawStage `parser:"@@ ( '|' @@ )*"`
}

type rawStage struct {
	Words []string `parser:"@Word+"`
}

var shellLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Pipe", Pattern: `\|`},
	{Name: "Word", Pattern: `[^\s|]+`},
})

var grammar = participle.MustBuild[rawPipeline](
	participle.Lexer(shellLexer),
	participle.Elide("Whitespace"),
)

// Parse tokenizes line and classifies each word into argv entries or
// redirections, splitting pipeline stages on "|". It returns (nil, false)
// for a blank line, a line with no words in some stage, or a parse error.
func Parse(line string) (*Pipeline, bool) {
	if strings.TrimSpace(line) == "" {
		return nil, false
	}

	raw, err := grammar.ParseString("", line)
	if err != nil {
		return nil, false
	}

	pipeline := &Pipeline{Raw: line}
	for _, stage := range raw.Stages {
		cmd, ok := classify(stage.Words, pipeline)
		if !ok || len(cmd.Argv) == 0 {
			return nil, false
		}
		pipeline.Commands = append(pipeline.Commands, cmd)
	}
	if len(pipeline.Commands) == 0 {
		return nil, false
	}
	return pipeline, true
}

// classify walks one stage's words, recognizing redirection operators
// (standalone or glued to their path, e.g. both ">out" and "> out") and
// the background marker "&" (a token equal to "&" or ending in "&"), and
// appending everything else to argv. This mirrors the token-by-token
// classification in parse.c's per-component loop, except for a leading
// "&" (e.g. "&sleep"): the original discards such a token outright and
// never backgrounds the job, a narrower rule than even spec.md defines.
// This rewrite follows spec.md literally instead: background is set only
// for a token equal to "&" or ending in "&", never for a merely
// leading "&", which is left as part of the word since the spec gives it
// no special meaning (see DESIGN.md).
func classify(words []string, pipeline *Pipeline) (*Command, bool) {
	cmd := &Command{}
	for i := 0; i < len(words); i++ {
		w := words[i]

		if w == "&" {
			pipeline.Background = true
			continue
		}
		if strings.HasSuffix(w, "&") {
			pipeline.Background = true
			w = strings.TrimSuffix(w, "&")
		}
		if w == "" {
			continue
		}

		switch {
		case w == ">>":
			i++
			if i >= len(words) {
				return nil, false
			}
			cmd.RedirectOut, cmd.AppendOut = words[i], true
		case strings.HasPrefix(w, ">>"):
			cmd.RedirectOut, cmd.AppendOut = w[2:], true
		case w == ">":
			i++
			if i >= len(words) {
				return nil, false
			}
			cmd.RedirectOut = words[i]
		case strings.HasPrefix(w, ">"):
			cmd.RedirectOut = w[1:]
		case w == "2>":
			i++
			if i >= len(words) {
				return nil, false
			}
			cmd.RedirectErr = words[i]
		case strings.HasPrefix(w, "2>"):
			cmd.RedirectErr = w[2:]
		case w == "<":
			i++
			if i >= len(words) {
				return nil, false
			}
			cmd.RedirectIn = words[i]
		case strings.HasPrefix(w, "<"):
			cmd.RedirectIn = w[1:]
		default:
			cmd.Argv = append(cmd.Argv, w)
		}
	}
	return cmd, true
}

// FormatCommand reconstructs a readable rendering of a pipeline, used by
// the jobs builtin to print a job's original command line when Raw isn't
// available (e.g. after reconstructing a Command by hand in tests).
func FormatCommand(p *Pipeline) string {
	var parts []string
	for _, cmd := range p.Commands {
		parts = append(parts, strings.Join(cmd.Argv, " "))
	}
	return strings.Join(parts, " | ")
}
