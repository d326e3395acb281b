// Package llmtool turns natural-language requests into data contract JSON.
package llmtool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	llmclient "contractcreator/internal/llmClient"
)

var ErrEmptyPrompt = errors.New("llmtool: prompt is empty")

// ContractGenerator asks an LLM for a new contract, or for a revision of an
// existing one, and extracts the JSON from the reply.
type ContractGenerator struct {
	LLM llmclient.LLMClient
}

func NewContractGenerator(cli llmclient.LLMClient) *ContractGenerator {
	return &ContractGenerator{LLM: cli}
}

// GenerateContract returns contract JSON text. An empty existing means a
// new contract is requested.
func (g *ContractGenerator) GenerateContract(ctx context.Context, prompt, existing string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	var full string
	if strings.TrimSpace(existing) == "" {
		full = NewContractPrompt(prompt)
	} else {
		full = RevisionPrompt(prompt, existing)
	}

	reply, err := g.LLM.Generate(ctx, full)
	if err != nil {
		return "", fmt.Errorf("%s: %w", g.LLM.Name(), err)
	}
	return ExtractJSON(reply)
}
