package ollama

import (
	"net/http"
	"net/url"

	"github.com/OFFIS-RIT/factgraph/pkg/ai"

	"github.com/ollama/ollama/api"
)

// ChatOllamaClient implements ai.ChatAIClient against an Ollama server.
type ChatOllamaClient struct {
	ai.MetricsRecorder

	model string

	Client *api.Client
}

// NewChatOllamaClientParams configures a ChatOllamaClient. An empty BaseURL
// selects the Ollama default; APIKey is sent as a bearer token for servers
// behind an authenticating proxy.
type NewChatOllamaClientParams struct {
	Model   string
	BaseURL string
	APIKey  string
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

func NewChatOllamaClient(params NewChatOllamaClientParams) (*ChatOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	} else {
		u, err = url.Parse("http://127.0.0.1:11434")
		if err != nil {
			return nil, err
		}
	}

	headers := map[string]string{}
	if params.APIKey != "" {
		headers["Authorization"] = "Bearer " + params.APIKey
	}
	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: headers,
			rt:      http.DefaultTransport,
		},
	}

	return &ChatOllamaClient{
		model:  params.Model,
		Client: api.NewClient(u, httpClient),
	}, nil
}
