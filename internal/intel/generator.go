package intel

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/genai"
)

// Generator is the transport seam. *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGenerator builds the Gemini API transport for apiKey.
func NewGenerator(ctx context.Context, apiKey string) (Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client.Models, nil
}

// Connectivity reports whether the model endpoint is reachable.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// AlwaysOnline skips the probe.
type AlwaysOnline struct{}

func (AlwaysOnline) Online(context.Context) bool { return true }

// DialProbe opens and closes a TCP connection to Addr.
type DialProbe struct {
	Addr    string
	Timeout time.Duration
}

// NewDialProbe returns a probe for host:port, or AlwaysOnline when addr is empty.
func NewDialProbe(addr string) Connectivity {
	if addr == "" {
		return AlwaysOnline{}
	}
	return DialProbe{Addr: addr, Timeout: 3 * time.Second}
}

func (p DialProbe) Online(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
