package smash

// Prompt returns the string the main loop prints before reading a line
// when running interactively. spec fixes this at "smash> "; the only
// variation this rewrite allows is the cosmetic override a config file
// may supply (see config.Config), never anything computed from cwd or
// host the way gosh's %u/%h/%w prompt expansion did.
func (sh *Shell) Prompt() string {
	return sh.promptString
}
