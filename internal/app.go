// Package internal provides the App struct that wires all components of the
// incident analysis engine together and initializes the CLI layer.
package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/marceloamor/CareDocQA/internal/cli"
	"github.com/marceloamor/CareDocQA/internal/core"
	"github.com/marceloamor/CareDocQA/internal/integration"
	"github.com/marceloamor/CareDocQA/internal/observability"
	"github.com/marceloamor/CareDocQA/internal/storage"
	"github.com/marceloamor/CareDocQA/pkg/models"
)

// App holds all service dependencies for the incident analysis engine.
type App struct {
	BasePath string
	Config   *models.GlobalConfig

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	Corpus     *storage.Corpus
	FormTmpl   *storage.FormTemplate
	SessionMgr storage.SessionContextManager

	// Core services
	Orchestrator core.Orchestrator
	Consistency  core.ConsistencyManager

	// Observability
	CostMeter *observability.CostMeter
	EventLog  observability.EventLog
	UsageCalc observability.UsageCalculator
	Notifier  observability.Notifier
}

// NewApp creates and wires all components of the engine. basePath is the
// directory holding .careconfig, the policy corpus, and the event log
// (typically the current directory or CAREDOC_HOME).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Storage layer ---
	app.Corpus, err = storage.LoadCorpus(resolvePath(basePath, cfg.CorpusPath))
	if err != nil {
		return nil, fmt.Errorf("loading policy corpus: %w", err)
	}
	app.FormTmpl, err = storage.LoadFormTemplate(resolvePath(basePath, cfg.FormTemplatePath))
	if err != nil {
		return nil, fmt.Errorf("loading report form template: %w", err)
	}
	app.SessionMgr = storage.NewSessionContextManager()

	// --- Observability ---
	app.CostMeter = observability.NewCostMeter()
	eventLogPath := filepath.Join(basePath, ".caredoc_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: run without an event log when it cannot be created.
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.UsageCalc = observability.NewUsageCalculator(app.EventLog)
	}
	if cfg.Notifications.Enabled && cfg.Notifications.SlackWebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.SlackWebhookURL)
	}

	// --- Integration ---
	client, err := integration.NewOpenAIClient(integration.OpenAIConfig{
		APIBase:     cfg.APIBase,
		APIKey:      os.Getenv("OPENAI_API_KEY"),
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}
	prices := integration.NewPriceTable()

	// --- Core services ---
	var evtAdapter core.EventRecorder
	var callObserver core.CallObserver
	if app.EventLog != nil {
		a := &eventLogAdapter{log: app.EventLog}
		evtAdapter = a
		callObserver = a
	}
	var notifyAdapter core.IncidentNotifier
	if app.Notifier != nil {
		notifyAdapter = &notifierAdapter{notifier: app.Notifier}
	}

	adapter := core.NewAnalysisAdapter(
		&capabilityClientAdapter{client: client},
		prices,
		app.CostMeter,
		callObserver,
		app.Corpus.FullText(),
		app.FormTmpl.Fields(),
	)

	app.Orchestrator = core.NewOrchestrator(
		adapter,
		app.SessionMgr,
		evtAdapter,
		notifyAdapter,
		cfg.Classifier,
		cfg.Notifications.MinUrgency,
		app.FormTmpl.Fields(),
	)
	app.Consistency = core.NewConsistencyManager(adapter, app.SessionMgr, evtAdapter)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.Corpus = app.Corpus
	cli.FormTmpl = app.FormTmpl
	cli.SessionMgr = app.SessionMgr
	cli.Orchestrator = app.Orchestrator
	cli.Consistency = app.Consistency
	cli.CostMeter = app.CostMeter
	cli.EventLog = app.EventLog
	cli.UsageCalc = app.UsageCalc
	cli.Prices = prices

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the data directory. It checks the CAREDOC_HOME
// env var, then walks up from the current directory looking for .careconfig.
func ResolveBasePath() string {
	if home := os.Getenv("CAREDOC_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".careconfig")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

func resolvePath(basePath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}

// --- Adapters ---

// capabilityClientAdapter adapts integration.CapabilityClient to
// core.CapabilityClient.
type capabilityClientAdapter struct {
	client integration.CapabilityClient
}

func (a *capabilityClientAdapter) Generate(ctx context.Context, messages []core.Message) (*core.CapabilityResult, error) {
	msgs := make([]integration.ChatMessage, len(messages))
	for i, m := range messages {
		msgs[i] = integration.ChatMessage{Role: m.Role, Content: m.Content}
	}
	res, err := a.client.Generate(ctx, msgs)
	if err != nil {
		return nil, err
	}
	return &core.CapabilityResult{
		Content:    res.Content,
		Model:      res.Model,
		TokensUsed: res.TokensUsed,
	}, nil
}

// eventLogAdapter adapts observability.EventLog to core.EventRecorder and
// core.CallObserver.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) RecordEvent(eventType, sessionID, message string, data map[string]any) {
	_ = a.log.Write(observability.Event{
		Time:      time.Now().UTC(),
		Level:     "INFO",
		Type:      eventType,
		SessionID: sessionID,
		Message:   message,
		Data:      data,
	})
}

func (a *eventLogAdapter) ObserveCall(promptKind string, usage models.Usage) {
	_ = a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   "INFO",
		Type:    observability.EventCapabilityCall,
		Message: promptKind,
		Data: map[string]any{
			"prompt_kind": promptKind,
			"model":       usage.Model,
			"tokens_used": usage.TokensUsed,
			"cost_usd":    usage.CostUSD,
		},
	})
}

// notifierAdapter adapts observability.Notifier to core.IncidentNotifier.
type notifierAdapter struct {
	notifier observability.Notifier
}

func (a *notifierAdapter) NotifyIncident(sessionID string, result *models.IncidentAnalysisResult) error {
	alert := observability.IncidentAlert{
		SessionID: sessionID,
		Summary:   result.Summary,
		Severity:  result.Severity,
	}
	for _, tp := range result.TriggeredPolicies {
		alert.Policies = append(alert.Policies, fmt.Sprintf("Section %s: %s", tp.SectionID, tp.Section))
	}
	for _, email := range result.Emails {
		alert.Recipients = append(alert.Recipients, email.RecipientType)
	}
	return a.notifier.Notify(alert)
}
