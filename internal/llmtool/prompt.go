package llmtool

import (
	"fmt"
	"strings"

	"contractcreator/internal/types"
)

const exampleContract = `{"nft":{"type":"object","properties":{"name":{"position":0,"type":"string","description":"Token name","maxLength":63},"imageUrl":{"position":1,"type":"string","description":"Image location","maxLength":2048,"format":"uri"},"imageHash":{"position":2,"type":"array","description":"SHA256 of the image bytes","byteArray":true,"minItems":32,"maxItems":32},"price":{"position":3,"type":"number","description":"Asking price","minimum":0}},"indices":[{"name":"name","properties":[{"name":"asc"}]},{"name":"price","properties":[{"price":"asc"}]}],"required":["name","price"],"additionalProperties":false,"description":"A tradable token"}}`

func rules() string {
	lines := []string{
		`Indices may only use the "asc" sort order.`,
		fmt.Sprintf(`Every "string" property used in an index must set "maxLength" to at most %d.`, types.MaxIndexedStringLength),
		fmt.Sprintf(`Every "array" property used in an index must set "maxItems" to at most %d.`, types.MaxIndexedArrayItems),
		`Every "array" property must set "byteArray": true.`,
		`Every "object" property must define at least one property of its own.`,
		`Every property needs a "position", counting up from 0 in declaration order.`,
		`Every document type sets "additionalProperties": false.`,
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(" - ")
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}

// NewContractPrompt asks for a fresh contract from an app description.
func NewContractPrompt(description string) string {
	var b strings.Builder
	b.WriteString("You write Dash Platform data contracts. A data contract is a JSON schema whose top-level keys are document types; ")
	b.WriteString("each document type describes one kind of document an application stores.\n\n")
	b.WriteString("Example contract with a single document type:\n")
	b.WriteString(exampleContract)
	b.WriteString("\n\nRules:\n")
	b.WriteString(rules())
	b.WriteString("\nGuidance:\n")
	b.WriteString(" - Prefer several document types when the app calls for them.\n")
	b.WriteString(" - Describe every document type and property, and add a \"$comment\" to each document type.\n")
	b.WriteString(" - Index the properties a real app would query on.\n")
	b.WriteString(" - Reply with the contract JSON only.\n\n")
	b.WriteString("App description:\n")
	b.WriteString(description)
	return b.String()
}

// RevisionPrompt asks for changes to an existing contract.
func RevisionPrompt(request, existing string) string {
	var b strings.Builder
	b.WriteString("You edit Dash Platform data contracts. The top-level keys of a contract are document types.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString(rules())
	b.WriteString("\nApply the requested change to the contract below, plus whatever else is needed to keep it valid under the rules. ")
	b.WriteString("Reply with the full contract JSON only.\n\n")
	b.WriteString("Existing contract:\n")
	b.WriteString(existing)
	b.WriteString("\n\nRequested change:\n")
	b.WriteString(request)
	return b.String()
}
