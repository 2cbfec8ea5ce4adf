package narrator

import (
	"bytes"
	"context"
	_ "embed"
	"log"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/kereth/troubles-sim/internal/rng"
)

//go:embed prompts/journal.txt
var journalPrompt string

// Gemini rewrites journal lines with a generative model. It degrades
// to the Local rules whenever the model is unavailable or returns
// nothing usable, so an API outage never stalls a session.
type Gemini struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	fallback *Local
	tmpl     *template.Template
}

// NewGemini builds a Gemini narrator with the given API key.
func NewGemini(ctx context.Context, apiKey string, src rng.Source) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("journal").Parse(journalPrompt)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &Gemini{
		client:   client,
		model:    client.GenerativeModel("gemini-2.5-flash"),
		fallback: &Local{Rand: src},
		tmpl:     tmpl,
	}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() {
	g.client.Close()
}

func (g *Gemini) Subjective(ctx context.Context, objective string, stats map[string]int) string {
	var buf bytes.Buffer
	data := struct {
		Tension, Morale, Ptsd int
		Objective             string
	}{
		Tension:   stats["tension"],
		Morale:    stats["morale"],
		Ptsd:      stats["ptsd"],
		Objective: objective,
	}
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return g.fallback.Subjective(ctx, objective, stats)
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(buf.String()))
	if err != nil {
		log.Printf("narrator: gemini rewrite failed, using local rules: %v", err)
		return g.fallback.Subjective(ctx, objective, stats)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return g.fallback.Subjective(ctx, objective, stats)
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return g.fallback.Subjective(ctx, objective, stats)
	}

	line := strings.TrimSpace(string(text))
	if line == "" {
		return g.fallback.Subjective(ctx, objective, stats)
	}
	return line
}
