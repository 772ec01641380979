// Package prompt turns gathered fragments into the diagnosis prompt.
// Assembly is pure string work: given the same fragments in the same
// order it produces byte-identical output, which keeps --print-prompt-data
// and the dry-run mode faithful to what the provider receives.
package prompt

import (
	"strings"

	"github.com/cloudsleuth/cloudsleuth/internal/datasource"
)

// Instruction is the system prompt preceding the assembled fragments.
const Instruction = "You are an AWS diagnostic assistant.\n" +
	"You will be given pieces of information surrounded by `<data></data>` tags\n" +
	"Use this information to perform a diagnosis.\n" +
	"Base your diagnosis from the provided information only.\n" +
	"Use all of the information provided in your diagnosis.\n" +
	"Structure your diagnosis per information, then provide a summary at the end\n" +
	"Format your response using Markdown.\n" +
	"Listed below are the information you will use:\n"

// Assemble renders fragments in the given order. Each fragment becomes
// one <data> block headed by its Information line.
func Assemble(fragments []datasource.Fragment) string {
	var b strings.Builder
	for _, f := range fragments {
		b.WriteString("<data>\n")
		b.WriteString("Information: [")
		b.WriteString(f.Title)
		b.WriteString("]\n")
		b.WriteString(f.Body)
		b.WriteString("\n</data>\n\n")
	}
	return b.String()
}

// EstimateTokens approximates how many tokens text costs, at the usual
// four characters per token. Good enough to warn about oversized
// prompts before spending a request.
func EstimateTokens(text string) int {
	return len([]rune(text)) / 4
}
