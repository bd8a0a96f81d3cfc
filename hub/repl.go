package hub

import (
	"strings"

	"github.com/lmorg/readline"

	"github.com/pryzma-lang/pryzma/text"
)

// Start is the outer REPL loop: read a line, hand it to the hub, stop when
// the hub says so.
func Start(hub *Hub) {
	rline := readline.NewInstance()
	for {
		rline.SetPrompt(makePrompt(hub))
		line, _ := rline.Readline()
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if hub.Do(line) {
			break
		}
	}
}

func makePrompt(hub *Hub) string {
	if hub.CurrentServiceName() == "" {
		return text.PROMPT
	}
	promptText := hub.CurrentServiceName() + " " + text.PROMPT
	if hub.CurrentServiceIsBroken() {
		promptText = text.Red(promptText)
	}
	return promptText
}
