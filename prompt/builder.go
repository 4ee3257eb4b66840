// Package prompt renders the instruction payload sent to the reasoning
// service.
//
// Information Hiding:
// - Wording of the suggestion protocol instructions
// - Layout of the indexed document and conversation history
// - Template parsing (done once at package init)
package prompt

import (
	"bytes"
	"strconv"
	"strings"
	"text/template"

	"github.com/richinex/scribe/document"
	"github.com/richinex/scribe/model"
)

// Payload is everything the gateway needs for one completion call.
type Payload struct {
	System string
	User   string
	Model  string
}

// systemInstructions describes the suggestion protocol.
const systemInstructions = `You are an AI collaborator helping a user edit a text document.

The document is shown as numbered blocks, one block per line:
[0] first block
[1] second block

Reply with a single JSON object and nothing else:
{"message": "<your reply to the user>", "suggestions": [<suggestion>, ...]}

Each suggestion is an object:
{"type": "<type>", "block_index": <integer or null>, "content": "<text>", "reason": "<why>"}

Allowed types:
- "addition": insert "content" as a new block at block_index; existing blocks from block_index onwards move down.
- "deletion": remove the block at block_index; "content" may be empty.
- "modification": replace the block at block_index with "content".
- "replace_all": replace the whole document with "content"; block_index must be null.

Rules for block_index:
- block_index is the zero-based number shown in brackets before each block, never any other number.
- block_index must be a real index from the document shown below. Never invent or estimate an index.
- If the document is new, empty, or contains only placeholder text, you MUST use "replace_all" instead of any block_index.

Only suggest the changes the user's query explicitly asks for. Do not add unsolicited additions or improvements.
If no change is requested, return an empty "suggestions" list.`

var userTemplate = template.Must(template.New("user").Parse(`DOCUMENT (block count: {{.Count}}):
{{- if .Blank}}
The document is empty. Use "replace_all" for any content you propose.
{{- end}}
{{- range .Blocks}}
{{.}}
{{- end}}

CHAT HISTORY:
{{- if not .History}}
(none)
{{- end}}
{{- range .History}}
{{.}}
{{- end}}

USER QUERY:
{{.Query}}
`))

type userView struct {
	Count   int
	Blank   bool
	Blocks  []string
	History []string
	Query   string
}

// Build renders the payload for one request. It is a pure function of its
// arguments.
func Build(blocks []document.Block, history []model.Entry, query, modelName string) Payload {
	view := userView{
		Count:   len(blocks),
		Blank:   document.IsBlank(blocks),
		Blocks:  RenderBlocks(blocks),
		History: RenderHistory(history),
		Query:   query,
	}

	var buf bytes.Buffer
	// only strings are rendered; writes to a bytes.Buffer cannot fail
	_ = userTemplate.Execute(&buf, view)

	return Payload{
		System: systemInstructions,
		User:   buf.String(),
		Model:  modelName,
	}
}

// RenderBlocks formats blocks as "[<display index>] <content>" lines.
func RenderBlocks(blocks []document.Block) []string {
	lines := make([]string, len(blocks))
	for i, b := range blocks {
		lines[i] = "[" + strconv.Itoa(b.Position) + "] " + b.Content
	}
	return lines
}

// RenderHistory formats entries as "<ROLE>: <content>" lines.
func RenderHistory(history []model.Entry) []string {
	lines := make([]string, len(history))
	for i, e := range history {
		lines[i] = strings.ToUpper(string(e.Role)) + ": " + e.Content
	}
	return lines
}
