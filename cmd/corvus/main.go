package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/config"
	"github.com/corvusmail/corvus/internal/credential"
	"github.com/corvusmail/corvus/internal/db"
	"github.com/corvusmail/corvus/internal/llm"
	"github.com/corvusmail/corvus/internal/query"
	"github.com/corvusmail/corvus/internal/services"
	"github.com/corvusmail/corvus/internal/version"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default: ~/.config/corvus/config.json)")
		socketPath  = flag.String("socket", "", "backend unix socket path (overrides config)")
		showVersion = flag.Bool("version", false, "print version information and exit")
		callCmd     = flag.String("call", "", "run a single backend command and print the JSON result")
		callArgs    = flag.String("args", "", "JSON arguments for --call")
		tail        = flag.Bool("tail", false, "print backend events as they arrive")
		fakeBackend = flag.Bool("fake-backend", false, "use a built-in in-memory backend with sample data")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.DetailedString())
		return
	}

	if err := run(*configPath, *socketPath, *callCmd, *callArgs, *tail, *fakeBackend); err != nil {
		fmt.Fprintf(os.Stderr, "corvus: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, socketPath, callCmd, callArgs string, tail, fakeBackend bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if socketPath != "" {
		cfg.Socket = socketPath
	}

	logger, logCleanup, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer logCleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport, err := openTransport(ctx, cfg, fakeBackend, logger)
	if err != nil {
		return err
	}
	b := bridge.New(transport, logger)
	defer func() { _ = b.Close() }()

	if callCmd != "" {
		return oneShot(ctx, b, callCmd, callArgs)
	}

	cache := query.NewCache(logger)
	rules, err := loadRules(cfg, logger)
	if err != nil {
		return err
	}
	registry := query.NewRegistry(b, cache, rules, logger)
	if err := registry.Setup(); err != nil {
		return fmt.Errorf("setup invalidation registry: %w", err)
	}
	defer registry.Teardown()

	store, err := db.Open(ctx, cfg.CachePath)
	if err != nil {
		return fmt.Errorf("open local cache: %w", err)
	}
	defer func() { _ = store.Close() }()

	svcs := buildServices(b, cache, store, cfg, logger)
	_ = svcs // services are exercised by the embedding application and tests

	if tail {
		return tailEvents(ctx, b, rules, logger)
	}

	logger.Printf("corvus %s connected, waiting for events (ctrl-c to exit)", version.Version)
	<-ctx.Done()
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultConfigPath()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.DefaultConfig(), nil
		}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func setupLogger(cfg *config.Config) (*log.Logger, func(), error) {
	if cfg.LogFile == "" {
		return log.New(os.Stderr, "", log.LstdFlags), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return log.New(f, "", log.LstdFlags), func() { _ = f.Close() }, nil
}

func openTransport(ctx context.Context, cfg *config.Config, fake bool, logger *log.Logger) (bridge.Transport, error) {
	if fake {
		logger.Printf("using in-memory fake backend")
		return newFakeBackend(), nil
	}
	token, err := credential.Get(credential.BackendTokenKey)
	if err != nil {
		// A missing token is fine against backends that do not require auth.
		logger.Printf("no backend token in keyring, connecting unauthenticated: %v", err)
		token = ""
	}
	sock, err := bridge.DialSocket(ctx, cfg.Socket, token, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to backend: %w", err)
	}
	return sock, nil
}

func loadRules(cfg *config.Config, logger *log.Logger) ([]query.Rule, error) {
	rules := query.DefaultRules()
	if cfg.RulesFile == "" {
		return rules, nil
	}
	overrides, err := query.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load invalidation rules: %w", err)
	}
	return query.MergeRules(rules, overrides, logger), nil
}

// corvusServices bundles the full service layer for an embedding application.
type corvusServices struct {
	Accounts      services.AccountService
	Folders       services.FolderService
	Labels        services.LabelService
	Views         services.ViewService
	Conversations services.ConversationService
	Emails        services.EmailService
	Contacts      services.ContactService
	Attachments   services.AttachmentService
	Search        services.SearchService
	AI            services.AIService
}

func buildServices(b *bridge.Bridge, cache *query.Cache, store *db.Store, cfg *config.Config, logger *log.Logger) *corvusServices {
	var provider llm.Provider
	if cfg.LLM.Enabled {
		p, err := llm.NewProviderFromConfig(cfg.LLM.Provider, cfg.LLM.Endpoint, cfg.LLM.Model, cfg.LLM.Region, cfg.GetLLMTimeout())
		if err != nil {
			logger.Printf("llm provider disabled: %v", err)
		} else {
			provider = p
		}
	}

	emails := services.NewEmailService(b, cache)
	return &corvusServices{
		Accounts:      services.NewAccountService(b, cache),
		Folders:       services.NewFolderService(b, cache),
		Labels:        services.NewLabelService(b, cache),
		Views:         services.NewViewService(b, cache),
		Conversations: services.NewConversationService(b, cache),
		Emails:        emails,
		Contacts:      services.NewContactService(b, cache),
		Attachments:   services.NewAttachmentService(b, db.NewAttachmentStore(store), emails, cfg.AttachmentDir),
		Search:        services.NewSearchService(b, db.NewSearchStore(store)),
		AI:            services.NewAIService(b, db.NewAIStore(store), provider, cfg, logger),
	}
}

// oneShot runs one backend command and prints its raw JSON result. Useful for
// poking at a live backend from the shell.
func oneShot(ctx context.Context, b *bridge.Bridge, command, argsJSON string) error {
	var args any
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return fmt.Errorf("parse --args: %w", err)
		}
	}
	var result json.RawMessage
	if err := b.Call(ctx, command, args, &result); err != nil {
		return err
	}
	if len(result) == 0 {
		fmt.Println("ok")
		return nil
	}
	var pretty any
	if err := json.Unmarshal(result, &pretty); err == nil {
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
		return nil
	}
	fmt.Println(string(result))
	return nil
}

// tailEvents prints every event the rule table knows about until interrupted.
func tailEvents(ctx context.Context, b *bridge.Bridge, rules []query.Rule, logger *log.Logger) error {
	for _, rule := range rules {
		event := rule.Event
		unsub, err := b.Listen(event, func(payload json.RawMessage) {
			fmt.Printf("%s %s\n", event, string(payload))
		})
		if err != nil {
			logger.Printf("tail: listen %q: %v", event, err)
			continue
		}
		defer unsub()
	}
	<-ctx.Done()
	return nil
}
