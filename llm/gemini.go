package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

const ModelName = "gemini-2.5-flash"

// Message is one conversation entry passed to the model.
type Message struct {
	Role    string // "candidate" or "agent"
	Content string
}

// Client wraps the Gemini API for the interview agents: text generation with
// a system instruction plus conversation history, and audio transcription.
type Client struct {
	genaiClient *genai.Client
}

func NewClient(apiKey string) (*Client, error) {
	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Client{genaiClient: genaiClient}, nil
}

// Generate produces a model reply for the given system instruction,
// conversation history, and latest user message.
func (c *Client) Generate(ctx context.Context, system string, history []Message, userMessage string) (string, error) {
	if c.genaiClient == nil {
		return "", fmt.Errorf("genai client not initialized")
	}

	contents := c.buildContents(history)
	if strings.TrimSpace(userMessage) != "" {
		contents = append(contents, genai.NewContentFromText(userMessage, genai.RoleUser))
	}
	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText("Hello", genai.RoleUser))
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}

	result, err := c.genaiClient.Models.GenerateContent(ctx, ModelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	response := result.Text()
	slog.Info("Generated agent response", "response_length", len(response))
	return response, nil
}

// Transcribe converts candidate audio to text. Bounded at 15 seconds so a
// stuck transcription never stalls the voice pipeline.
func (c *Client) Transcribe(ctx context.Context, audioData []byte, prompt string) (string, error) {
	slog.Info("Transcribing audio", "size", len(audioData))

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if c.genaiClient == nil {
		return "", fmt.Errorf("genai client not initialized")
	}
	if prompt == "" {
		prompt = "Transcribe this audio to text. Provide only the transcript, no additional commentary."
	}

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		{
			InlineData: &genai.Blob{
				MIMEType: "audio/ogg",
				Data:     audioData,
			},
		},
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := c.genaiClient.Models.GenerateContent(ctx, ModelName, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate transcript: %w", err)
	}

	transcript := strings.TrimSpace(result.Text())
	slog.Info("Audio transcribed", "transcript_length", len(transcript))
	return transcript, nil
}

func (c *Client) buildContents(history []Message) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range history {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		if msg.Role == "agent" {
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		} else {
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return contents
}
