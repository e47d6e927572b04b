package cmd

import (
	"math/rand"
	"regexp"

	"github.com/dotcommander/agentgw/internal/present"
)

var examples = map[string]string{
	"Serve a local Ollama model to your LAN": `OLLAMA_MODEL=llama3.1 agentgw --host 0.0.0.0 --port 8080`,
	"Ask the running gateway something":      `agentgw ask "what is in my home directory?" | glow`,
	"Stream OpenAI chunks with curl":         `curl -N localhost:8000/v1/chat/completions -d '{"model":"qwen2.5:7b","messages":[{"role":"user","content":"What time is it?"}]}'`,
	"Demo the endpoints without a model":     `agentgw --replay session.jsonl --log-level debug`,
}

func randomExample() string {
	keys := make([]string, 0, len(examples))
	for k := range examples {
		keys = append(keys, k)
	}
	desc := keys[rand.Intn(len(keys))] //nolint:gosec
	return desc
}

func cheapHighlighting(s present.Styles, code string) string {
	code = regexp.
		MustCompile(`"([^"\\]|\\.)*"`).
		ReplaceAllStringFunc(code, func(x string) string {
			return s.Quote.Render(x)
		})
	code = regexp.
		MustCompile(`\|`).
		ReplaceAllStringFunc(code, func(x string) string {
			return s.Pipe.Render(x)
		})
	return code
}
