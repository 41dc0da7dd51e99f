package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// AI Dossier Writer
//
// Turns the technical case document into a narrative intelligence report
// through a local Ollama instance. The engine never blocks on this: report
// generation is caller-initiated and its failures surface as plain errors.

const dossierPrompt = `VOCÊ É UM ANALISTA DE INTELIGÊNCIA CIBERNÉTICA SÊNIOR.
Sua missão é escrever um RELATÓRIO TÉCNICO FINAL com base nas evidências JSON abaixo.

EVIDÊNCIAS COLETADAS:
%s

DIRETRIZES DE ESCRITA:
1. Comece com um "RESUMO EXECUTIVO" (Quem é o alvo, qual o site, qual o risco).
2. Crie uma seção "ANÁLISE FINANCEIRA": Detalhe o recebedor do Pix, se é empresa ou pessoa, e suspeitas.
3. Crie uma seção "INFRAESTRUTURA": Fale sobre o IP, Hospedagem (Cloudflare?) e Riscos de Segurança.
4. Crie uma seção "VÍNCULOS": Explique como o Pix se conecta ao Site.
5. Termine com "CONCLUSÃO E RECOMENDAÇÃO": Sugira bloqueio, investigação aprofundada ou monitoramento.
6. Use linguagem formal, direta e em Português do Brasil.
7. NÃO invente dados. Use apenas o que está no JSON.

Gere o relatório agora:`

// Writer generates dossiers through the Ollama chat API.
type Writer struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewWriter points at an Ollama instance; model defaults to phi3.
func NewWriter(endpoint, model string) *Writer {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "phi3"
	}
	return &Writer{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// GenerateDossier renders the case document into a narrative report.
func (w *Writer) GenerateDossier(ctx context.Context, caseDocument any) (string, error) {
	evidence, err := json.MarshalIndent(caseDocument, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing case document: %v", err)
	}

	payload, err := json.Marshal(chatRequest{
		Model: w.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(dossierPrompt, evidence)},
		},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		w.endpoint+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building chat request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned HTTP %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("decoding ollama response: %v", err)
	}
	if chat.Message.Content == "" {
		return "", fmt.Errorf("ollama returned an empty dossier")
	}

	return chat.Message.Content, nil
}

// SaveReport writes the dossier to a timestamped markdown file and
// returns the filename.
func (w *Writer) SaveReport(text string) (string, error) {
	filename := fmt.Sprintf("DOSSIE_FINAL_%s.md", time.Now().Format("20060102_1504"))
	content := "# RELATÓRIO DE INTELIGÊNCIA\n\n" + text

	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("saving report: %v", err)
	}
	return filename, nil
}
