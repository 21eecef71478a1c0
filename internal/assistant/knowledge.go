package assistant

// Built-in knowledge base covering the CRM's feature areas.
var knowledgeBase = []Entry{
	{
		Category:   "leads",
		Keywords:   []string{"lead", "leads", "create lead", "add lead", "new lead", "contact"},
		Confidence: 0.95,
		Answer: `**Managing Leads:**

1. **Create a Lead**: Click the "+ Add New Lead" button on the Leads page
2. **View Leads**: Navigate to the Leads page from the sidebar
3. **Filter Leads**: Use the search bar and filters (status, priority)
4. **Edit Lead**: Click on any lead to view details and edit
5. **Lead Statuses**: New -> Contacted -> Qualified -> Proposal -> Negotiation -> Closed Won/Lost
6. **Lead Score**: Each lead has a calculated score (0-100) based on engagement and potential

Would you like to know more about a specific aspect?`,
	},
	{
		Category:   "pipeline",
		Keywords:   []string{"pipeline", "deals", "sales pipeline", "stages", "kanban", "move deal"},
		Confidence: 0.95,
		Answer: `**Sales Pipeline Management:**

The Pipeline view uses a Kanban board with 4 stages:
1. **Qualified** - Leads ready for proposals
2. **Proposal** - Proposals sent to clients
3. **Negotiation** - In price/terms discussion
4. **Closed Won** - Successfully closed deals

Drag deals between stages, track pipeline value and conversion rates,
and filter deals by value or search. Access it from the Pipeline menu.`,
	},
	{
		Category:   "tasks",
		Keywords:   []string{"task", "tasks", "to-do", "reminder", "follow up", "create task"},
		Confidence: 0.95,
		Answer: `**Task Management:**

Create tasks from the Tasks page: set title, description, due date and
priority, and link tasks to specific leads.

**Task Types:** Call, Email, Meeting, Follow-up, Demo, Other
**Priority Levels:** Low, Medium, High, Urgent

Tasks help you stay organized and ensure timely follow-ups with leads!`,
	},
	{
		Category:   "analytics",
		Keywords:   []string{"analytics", "reports", "dashboard", "metrics", "statistics", "conversion"},
		Confidence: 0.95,
		Answer: `**Analytics & Reporting:**

Dashboard metrics cover total revenue, conversion rates, average deal
size and pipeline value. Reports include lead source breakdown, team
performance, conversion funnel and sales velocity, exportable as CSV,
PDF or Excel with custom date ranges.`,
	},
	{
		Category:   "notifications",
		Keywords:   []string{"notification", "notifications", "alerts", "real-time"},
		Confidence: 0.95,
		Answer: `**Real-Time Notifications:**

You receive notifications for new leads, lead status updates, notes
added to leads, tasks due soon, and team member activities. The bell
icon shows the unread count; updates arrive live over WebSocket.

Enable notifications in Settings > Notifications.`,
	},
	{
		Category:   "export",
		Keywords:   []string{"export", "download", "csv", "excel", "pdf"},
		Confidence: 0.95,
		Answer: `**Data Export:**

From the Analytics page, click "Export", choose CSV, Excel or PDF,
select a date range and download. Lead lists, pipeline reports,
analytics data and task lists are all exportable, honoring your current
filters.`,
	},
	{
		Category:   "help",
		Keywords:   []string{"help", "support", "how to", "guide", "tutorial", "documentation"},
		Confidence: 0.95,
		Answer: `**Getting Help:**

I can help with creating and managing leads, using the sales pipeline,
setting up tasks and reminders, understanding analytics, and exporting
data. For complex issues, click "Transfer to Live Agent" for human
support.

What would you like help with?`,
	},
}

// Phrases indicating the user is explicitly asking for a human.
var liveAgentPhrases = []string{
	"human", "agent", "person", "speak to someone", "real person", "live support",
}

var genericResponses = []genericResponse{
	{
		triggers: []string{"price", "cost", "pricing", "payment"},
		response: "For pricing information, please contact our sales team or check the pricing page. Would you like me to transfer you to a live agent who can discuss pricing options?",
	},
	{
		triggers: []string{"bug", "error", "broken", "not working", "issue"},
		response: "I'm sorry you're experiencing an issue. Could you describe what's happening in more detail? If this is urgent, I can connect you with a live agent who can help troubleshoot.",
	},
	{
		triggers: []string{"account", "login", "password", "reset"},
		response: "For account-related issues:\n- Reset password: Use 'Forgot Password' on the login page\n- Login issues: Clear browser cache and try again\n- Account settings: Go to Settings > Profile\n\nNeed more help? I can transfer you to support.",
	},
}

const fallbackAnswer = `I'm not entirely sure about that. Here's what I can definitely help with:

- **Leads**: Creating, managing, and organizing leads
- **Pipeline**: Moving deals through sales stages
- **Tasks**: Setting up reminders and follow-ups
- **Analytics**: Understanding your sales metrics

Could you rephrase your question, or would you like to speak with a live agent?`
