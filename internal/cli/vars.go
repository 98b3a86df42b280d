package cli

import (
	"github.com/marceloamor/CareDocQA/internal/core"
	"github.com/marceloamor/CareDocQA/internal/integration"
	"github.com/marceloamor/CareDocQA/internal/observability"
	"github.com/marceloamor/CareDocQA/internal/storage"
	"github.com/marceloamor/CareDocQA/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Config   *models.GlobalConfig

	Corpus     *storage.Corpus
	FormTmpl   *storage.FormTemplate
	SessionMgr storage.SessionContextManager

	Orchestrator core.Orchestrator
	Consistency  core.ConsistencyManager

	CostMeter *observability.CostMeter
	EventLog  observability.EventLog
	UsageCalc observability.UsageCalculator
	Prices    *integration.PriceTable
)
