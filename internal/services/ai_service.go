package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/config"
	"github.com/corvusmail/corvus/internal/db"
	"github.com/corvusmail/corvus/internal/llm"
)

const (
	defaultSummarizePrompt = "Summarize the following email in 2-3 short sentences. Be factual; do not invent details.\n\n{{content}}"
	defaultAnalyzePrompt   = "Analyze the following email. State the sender's intent, any action items with deadlines, and the overall tone.\n\n{{content}}"
	defaultAskPrompt       = "Answer the question using only the email below. If the email does not contain the answer, say so.\n\nQuestion: {{question}}\n\nEmail:\n{{content}}"
)

// AIServiceImpl implements AIService. Analysis runs through the backend's
// streaming AI commands when the build ships them; otherwise it falls back to
// a directly configured provider. Results are cached in the local store so
// re-opening an email never re-runs inference.
type AIServiceImpl struct {
	bridge   *bridge.Bridge
	store    *db.AIStore
	provider llm.Provider
	config   *config.Config
	logger   *log.Logger
}

// NewAIService creates a new AI service. provider may be nil when no local
// fallback is configured.
func NewAIService(b *bridge.Bridge, store *db.AIStore, provider llm.Provider, cfg *config.Config, logger *log.Logger) *AIServiceImpl {
	return &AIServiceImpl{bridge: b, store: store, provider: provider, config: cfg, logger: logger}
}

func (s *AIServiceImpl) AnalyzeEmail(ctx context.Context, content string, opts AnalysisOptions, onToken func(string)) (*AnalysisResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("email content cannot be empty")
	}
	kind := opts.Kind
	if strings.TrimSpace(kind) == "" {
		kind = "summary"
	}

	if opts.UseCache && !opts.ForceRegenerate && opts.AccountID != "" && opts.EmailID != "" {
		if cached, ok, err := s.store.LoadResult(ctx, opts.AccountID, opts.EmailID, kind); err == nil && ok {
			if onToken != nil {
				onToken(cached)
			}
			return &AnalysisResult{Text: cached, FromCache: true}, nil
		}
	}

	command := "analyze_email"
	family := "corvus:analyze-email"
	args := map[string]any{"content": content, "kind": kind}
	if opts.EmailID != "" {
		args["email_id"] = opts.EmailID
	}

	text, err := s.bridge.Stream(ctx, command, family, args, onToken)
	if err != nil {
		if bridge.IsUnsupported(err) {
			text, err = s.generateLocal(ctx, s.prompt(kind, content), onToken)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to analyze email: %w", err)
		}
	}

	if opts.AccountID != "" && opts.EmailID != "" && strings.TrimSpace(text) != "" {
		if saveErr := s.store.SaveResult(ctx, opts.AccountID, opts.EmailID, kind, text, time.Now().Unix()); saveErr != nil {
			if s.logger != nil {
				s.logger.Printf("ai: failed to cache %s result for %s: %v", kind, opts.EmailID, saveErr)
			}
		}
	}
	return &AnalysisResult{Text: text}, nil
}

func (s *AIServiceImpl) Ask(ctx context.Context, question, emailContent string, onToken func(string)) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question cannot be empty")
	}
	if strings.TrimSpace(emailContent) == "" {
		return "", fmt.Errorf("email content cannot be empty")
	}

	args := map[string]any{"question": question, "content": emailContent}
	text, err := s.bridge.Stream(ctx, "ask_ai", "corvus:ask-ai", args, onToken)
	if err != nil {
		if bridge.IsUnsupported(err) {
			prompt := strings.ReplaceAll(defaultAskPrompt, "{{question}}", question)
			prompt = strings.ReplaceAll(prompt, "{{content}}", emailContent)
			text, err = s.generateLocal(ctx, prompt, onToken)
		}
		if err != nil {
			return "", fmt.Errorf("failed to ask AI: %w", err)
		}
	}
	return text, nil
}

// AutoAnalyze runs a background analysis on freshly synced content. Failures
// are logged and swallowed; background work must never surface errors to the
// caller.
func (s *AIServiceImpl) AutoAnalyze(ctx context.Context, content string, opts AnalysisOptions) {
	opts.UseCache = true
	if _, err := s.AnalyzeEmail(ctx, content, opts, nil); err != nil {
		if s.logger != nil {
			s.logger.Printf("ai: auto-analysis of %s failed: %v", opts.EmailID, err)
		}
	}
}

// generateLocal runs the configured direct provider, streaming when both the
// provider and the config allow it.
func (s *AIServiceImpl) generateLocal(ctx context.Context, prompt string, onToken func(string)) (string, error) {
	if s.provider == nil || s.config == nil || !s.config.LLM.Enabled {
		return "", fmt.Errorf("AI commands unavailable: %w", ErrAIUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.GetLLMTimeout())
	defer cancel()

	if s.config.LLM.StreamEnabled && onToken != nil {
		if sp, ok := s.provider.(llm.StreamProvider); ok {
			var builder strings.Builder
			err := sp.GenerateStream(ctx, prompt, func(token string) {
				builder.WriteString(token)
				onToken(token)
			})
			if err != nil {
				return "", err
			}
			return builder.String(), nil
		}
	}

	text, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if onToken != nil {
		onToken(text)
	}
	return text, nil
}

func (s *AIServiceImpl) prompt(kind, content string) string {
	tmpl := defaultSummarizePrompt
	switch kind {
	case "analysis":
		tmpl = defaultAnalyzePrompt
		if s.config != nil && s.config.LLM.AnalyzePrompt != "" {
			tmpl = s.config.LLM.AnalyzePrompt
		}
	default:
		if s.config != nil && s.config.LLM.SummarizePrompt != "" {
			tmpl = s.config.LLM.SummarizePrompt
		}
	}
	return strings.ReplaceAll(tmpl, "{{content}}", content)
}
