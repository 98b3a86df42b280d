package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Dashboard panel indices.
const (
	panelIncident = iota
	panelUsage
	panelEmails
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	incident *incidentSnapshot
	usage    *usageSnapshot
	emails   []emailSnapshot

	// State.
	loading bool
	err     error
}

type incidentSnapshot struct {
	sessionID string
	severity  string
	summary   string
	policies  []string
	documents map[string]int
	updatedAt string
}

type usageSnapshot struct {
	analyses  int
	questions int
	updates   int
	calls     int
	tokens    int64
	costUSD   float64
}

type emailSnapshot struct {
	recipient string
	urgency   string
	subject   string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	incident *incidentSnapshot
	usage    *usageSnapshot
	emails   []emailSnapshot
	err      error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	urgencyCritical = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	urgencyHigh     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	urgencyMedium   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	urgencyLow      = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelIncident,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadDashboardData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadDashboardData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.incident = msg.incident
		m.usage = msg.usage
		m.emails = msg.emails
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" CareDoc Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	incidentPanel := m.renderIncidentPanel()
	usagePanel := m.renderUsagePanel()
	emailsPanel := m.renderEmailsPanel()

	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		colWidth := availableWidth / 3
		incidentPanel = m.applyPanelStyle(panelIncident, incidentPanel, colWidth-4)
		usagePanel = m.applyPanelStyle(panelUsage, usagePanel, colWidth-4)
		emailsPanel = m.applyPanelStyle(panelEmails, emailsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, incidentPanel, usagePanel, emailsPanel)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		incidentPanel = m.applyPanelStyle(panelIncident, incidentPanel, panelWidth)
		usagePanel = m.applyPanelStyle(panelUsage, usagePanel, panelWidth)
		emailsPanel = m.applyPanelStyle(panelEmails, emailsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, incidentPanel, usagePanel, emailsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderIncidentPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Incident"))
	b.WriteString("\n")

	if m.incident == nil {
		b.WriteString("  No active incident.")
		return b.String()
	}

	sev := styleForUrgency(m.incident.severity).Render(strings.ToUpper(m.incident.severity))
	b.WriteString(fmt.Sprintf("  Session:  %s\n", m.incident.sessionID))
	b.WriteString(fmt.Sprintf("  Severity: %s\n", sev))
	b.WriteString(fmt.Sprintf("  Updated:  %s\n", m.incident.updatedAt))
	b.WriteString(fmt.Sprintf("\n  %s\n", m.incident.summary))

	if len(m.incident.policies) > 0 {
		b.WriteString("\n  Triggered policies:\n")
		for _, p := range m.incident.policies {
			b.WriteString(fmt.Sprintf("    - %s\n", p))
		}
	}

	if len(m.incident.documents) > 0 {
		keys := make([]string, 0, len(m.incident.documents))
		for k := range m.incident.documents {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n  Documents:\n")
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("    %-24s %d bytes\n", k, m.incident.documents[k]))
		}
	}

	return b.String()
}

func (m dashboardModel) renderUsagePanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Usage (7d)"))
	b.WriteString("\n")

	if m.usage == nil {
		b.WriteString("  No usage recorded.")
		return b.String()
	}

	u := m.usage
	lines := []struct {
		label string
		value string
	}{
		{"Analyses", fmt.Sprintf("%d", u.analyses)},
		{"Questions", fmt.Sprintf("%d", u.questions)},
		{"Updates", fmt.Sprintf("%d", u.updates)},
		{"Calls", fmt.Sprintf("%d", u.calls)},
		{"Tokens", fmt.Sprintf("%d", u.tokens)},
		{"Cost", fmt.Sprintf("$%.4f", u.costUSD)},
	}

	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %s\n", l.label, l.value))
	}

	return b.String()
}

func (m dashboardModel) renderEmailsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Email Drafts"))
	b.WriteString("\n")

	if len(m.emails) == 0 {
		b.WriteString("  No email drafts.")
		return b.String()
	}

	for _, e := range m.emails {
		urg := styleForUrgency(e.urgency).Render(fmt.Sprintf("[%s]", strings.ToUpper(e.urgency)))
		b.WriteString(fmt.Sprintf("  %s %s: %s\n", urg, e.recipient, e.subject))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d draft(s)", len(m.emails)))

	return b.String()
}

func styleForUrgency(urgency string) lipgloss.Style {
	switch strings.ToLower(urgency) {
	case "critical":
		return urgencyCritical
	case "high":
		return urgencyHigh
	case "medium":
		return urgencyMedium
	case "low":
		return urgencyLow
	default:
		return lipgloss.NewStyle()
	}
}

func loadDashboardData() tea.Msg {
	result := dataLoadedMsg{}

	// Load the active incident from the session store.
	if SessionMgr != nil {
		session := SessionMgr.Get(dashboardSession)
		if session.HasActiveIncident {
			snap := &incidentSnapshot{
				sessionID: session.SessionID,
				severity:  string(session.LastAnalysis.Severity),
				summary:   session.IncidentSummary,
				documents: make(map[string]int, len(session.Artifacts)),
				updatedAt: session.UpdatedAt.Format("2006-01-02 15:04 UTC"),
			}
			for _, tp := range session.LastAnalysis.TriggeredPolicies {
				snap.policies = append(snap.policies, fmt.Sprintf("%s %s", tp.SectionID, tp.Section))
			}
			for k, v := range session.Artifacts {
				snap.documents[k] = len(v)
			}
			result.incident = snap

			for _, e := range session.LastAnalysis.Emails {
				result.emails = append(result.emails, emailSnapshot{
					recipient: string(e.RecipientType),
					urgency:   string(e.Urgency),
					subject:   e.Subject,
				})
			}
		}
	}

	// Load usage aggregates from the event log.
	if UsageCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := UsageCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading usage: %w", err)
			return result
		}
		result.usage = &usageSnapshot{
			analyses:  metrics.AnalysesCompleted,
			questions: metrics.QuestionsAnswered,
			updates:   metrics.DocumentsUpdated,
			calls:     metrics.CapabilityCalls,
			tokens:    metrics.TokensUsed,
			costUSD:   metrics.CostUSD,
		}
	}

	return result
}

var dashboardSession string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for the active incident and usage",
	Long: `Launch an interactive terminal dashboard showing the session's active
incident, capability usage, and drafted notification emails.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if SessionMgr == nil {
			return fmt.Errorf("session manager not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardSession, "session", "default", "Session ID to display")
	rootCmd.AddCommand(dashboardCmd)
}
