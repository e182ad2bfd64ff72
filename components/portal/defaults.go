package portal

import "slices"

var everyone = []Role{RoleStaff, RoleHR, RoleManager, RoleFinance, RoleAdmin}

var defaultWidgets = []WidgetMeta{
	{
		ID:            "quick-stats",
		Name:          "Quick Stats",
		NameLocalized: map[string]string{"es": "Resumen rápido"},
		Description:   "Headline numbers for the current period",
		Icon:          "activity",
		Category:      CategoryOverview,
		DefaultSize:   SizeFull,
		AllowedRoles:  everyone,
	},
	{ID: "announcements", Name: "Announcements", NameLocalized: map[string]string{"es": "Anuncios"}, Description: "Company-wide news and notices", Icon: "megaphone", Category: CategoryOverview, DefaultSize: SizeMedium, AllowedRoles: everyone},
	{ID: "quick-actions", Name: "Quick Actions", NameLocalized: map[string]string{"es": "Acciones rápidas"}, Description: "Shortcuts for common requests", Icon: "zap", Category: CategoryOverview, DefaultSize: SizeMedium, AllowedRoles: everyone},
	{ID: "meetings", Name: "Upcoming Meetings", Description: "Today's and tomorrow's calendar", Icon: "calendar", Category: CategoryOverview, DefaultSize: SizeMedium, AllowedRoles: everyone},
	{ID: "attendance", Name: "Attendance", NameLocalized: map[string]string{"es": "Asistencia"}, Description: "Clock-in status and weekly hours", Icon: "clock", Category: CategoryPersonal, DefaultSize: SizeMedium, AllowedRoles: everyone},
	{ID: "leave-balance", Name: "Leave Balance", Description: "Remaining annual, sick and personal days", Icon: "sun", Category: CategoryPersonal, DefaultSize: SizeSmall, AllowedRoles: everyone},
	{ID: "payslip", Name: "Latest Payslip", Description: "Most recent net pay and download link", Icon: "file-text", Category: CategoryPersonal, DefaultSize: SizeSmall, AllowedRoles: everyone},
	{ID: "tasks", Name: "My Tasks", NameLocalized: map[string]string{"es": "Mis tareas"}, Description: "Open tasks assigned to you", Icon: "check-square", Category: CategoryPersonal, DefaultSize: SizeLarge, AllowedRoles: everyone},
	{ID: "projects", Name: "Projects", Description: "Projects you contribute to", Icon: "folder", Category: CategoryPersonal, DefaultSize: SizeMedium, AllowedRoles: everyone},
	{ID: "expense-claims", Name: "Expense Claims", Description: "Status of your submitted claims", Icon: "receipt", Category: CategoryPersonal, DefaultSize: SizeMedium, AllowedRoles: everyone},

	{ID: "headcount", Name: "Headcount", Description: "Employees by department and trend", Icon: "users", Category: CategoryHR, DefaultSize: SizeMedium, AllowedRoles: []Role{RoleHR, RoleAdmin}},
	{ID: "leave-requests", Name: "Leave Requests", Description: "Pending leave approvals", Icon: "inbox", Category: CategoryHR, DefaultSize: SizeLarge, AllowedRoles: []Role{RoleHR, RoleManager, RoleAdmin}},
	{ID: "recruitment", Name: "Recruitment Pipeline", Description: "Open roles and candidate stages", Icon: "user-plus", Category: CategoryHR, DefaultSize: SizeMedium, AllowedRoles: []Role{RoleHR, RoleAdmin}},
	{ID: "employee-directory", Name: "Employee Directory", Description: "Search people across the organization", Icon: "book", Category: CategoryHR, DefaultSize: SizeLarge, AllowedRoles: []Role{RoleHR, RoleAdmin}},
	{ID: "onboarding", Name: "Onboarding", Description: "New hires and checklist progress", Icon: "flag", Category: CategoryHR, DefaultSize: SizeMedium, AllowedRoles: []Role{RoleHR, RoleAdmin}},

	{ID: "team-overview", Name: "Team Overview", Description: "Your direct reports at a glance", Icon: "grid", Category: CategoryOperations, DefaultSize: SizeLarge, AllowedRoles: []Role{RoleManager, RoleAdmin}},
	{ID: "team-attendance", Name: "Team Attendance", Description: "Who is in, remote or on leave today", Icon: "map-pin", Category: CategoryOperations, DefaultSize: SizeMedium, AllowedRoles: []Role{RoleManager, RoleHR, RoleAdmin}},
	{ID: "performance-reviews", Name: "Performance Reviews", Description: "Review cycle progress", Icon: "trending-up", Category: CategoryOperations, DefaultSize: SizeMedium, AllowedRoles: []Role{RoleManager, RoleHR, RoleAdmin}},
	{ID: "system-health", Name: "System Health", Description: "Integrations and sync status", Icon: "server", Category: CategoryOperations, DefaultSize: SizeSmall, AllowedRoles: []Role{RoleAdmin}},
	{ID: "audit-log", Name: "Audit Log", Description: "Recent administrative changes", Icon: "shield", Category: CategoryOperations, DefaultSize: SizeLarge, AllowedRoles: []Role{RoleAdmin}},

	{ID: "invoices", Name: "Invoices", Description: "Outstanding and overdue invoices", Icon: "file", Category: CategoryFinance, DefaultSize: SizeLarge, AllowedRoles: []Role{RoleFinance, RoleAdmin}},
	{ID: "payroll-summary", Name: "Payroll Summary", Description: "Current run totals and deadlines", Icon: "dollar-sign", Category: CategoryFinance, DefaultSize: SizeLarge, AllowedRoles: []Role{RoleFinance, RoleHR, RoleAdmin}},
	{ID: "budget", Name: "Budget", Description: "Spend against department budgets", Icon: "pie-chart", Category: CategoryFinance, DefaultSize: SizeMedium, AllowedRoles: []Role{RoleFinance, RoleManager, RoleAdmin}},
	{ID: "expense-approvals", Name: "Expense Approvals", Description: "Claims waiting for your approval", Icon: "check-circle", Category: CategoryFinance, DefaultSize: SizeMedium, AllowedRoles: []Role{RoleFinance, RoleManager, RoleAdmin}},
	{ID: "cash-flow", Name: "Cash Flow", Description: "Inflows and outflows over 90 days", Icon: "bar-chart", Category: CategoryFinance, DefaultSize: SizeLarge, AllowedRoles: []Role{RoleFinance, RoleAdmin}},
}

// DefaultWidgets returns the built-in widget catalog entries.
func DefaultWidgets() []WidgetMeta {
	out := make([]WidgetMeta, len(defaultWidgets))
	for i, meta := range defaultWidgets {
		meta.AllowedRoles = slices.Clone(meta.AllowedRoles)
		out[i] = meta
	}
	return out
}

var baselineLayout = []string{
	"quick-stats", "attendance", "leave-balance", "payslip", "tasks",
	"projects", "meetings", "quick-actions", "announcements", "expense-claims",
}

var roleExtras = map[Role][]string{
	RoleStaff:   nil,
	RoleHR:      {"headcount", "leave-requests", "recruitment", "employee-directory", "onboarding"},
	RoleManager: {"team-overview", "team-attendance", "leave-requests", "performance-reviews", "budget", "expense-approvals"},
	RoleFinance: {"invoices", "payroll-summary", "budget", "expense-approvals", "cash-flow"},
	RoleAdmin:   {"headcount", "team-overview", "invoices", "payroll-summary", "system-health", "audit-log"},
}

// DefaultRoleLayouts returns the hand-authored widget id lists per role: the
// staff baseline followed by role-specific additions.
func DefaultRoleLayouts() map[Role][]string {
	out := make(map[Role][]string, len(roleExtras))
	for role, extras := range roleExtras {
		ids := slices.Clone(baselineLayout)
		out[role] = append(ids, extras...)
	}
	return out
}

// StandardPresetID names the preset that mirrors the role default layout.
const StandardPresetID = "standard"

func presetWidgets(entries ...WidgetInstance) []WidgetInstance {
	for i := range entries {
		entries[i].Order = i
		entries[i].Visible = true
	}
	return entries
}

func slot(id string, size WidgetSize) WidgetInstance {
	return WidgetInstance{ID: id, Size: size}
}

// DefaultPresets returns the built-in presets other than "standard", which is
// computed per role from the default layout.
func DefaultPresets() []Preset {
	return []Preset{
		{
			ID:          "minimal",
			Name:        "Minimal",
			Description: "Just the essentials",
			Icon:        "minimize",
			Widgets: presetWidgets(
				slot("quick-stats", SizeFull),
				slot("tasks", SizeLarge),
				slot("meetings", SizeMedium),
				slot("quick-actions", SizeMedium),
			),
		},
		{
			ID:          "personal-focus",
			Name:        "Personal Focus",
			Description: "Your time, pay and work in one place",
			Icon:        "user",
			Widgets: presetWidgets(
				slot("quick-stats", SizeFull),
				slot("tasks", SizeLarge),
				slot("attendance", SizeMedium),
				slot("leave-balance", SizeSmall),
				slot("payslip", SizeSmall),
				slot("meetings", SizeMedium),
				slot("expense-claims", SizeMedium),
			),
		},
		{
			ID:          "team-lead",
			Name:        "Team Lead",
			Description: "Keep an eye on your team and approvals",
			Icon:        "users",
			ForRoles:    []Role{RoleManager, RoleAdmin},
			Widgets: presetWidgets(
				slot("quick-stats", SizeFull),
				slot("team-overview", SizeLarge),
				slot("team-attendance", SizeMedium),
				slot("leave-requests", SizeLarge),
				slot("performance-reviews", SizeMedium),
				slot("expense-approvals", SizeMedium),
				slot("meetings", SizeMedium),
			),
		},
		{
			ID:          "hr-focus",
			Name:        "HR Focus",
			Description: "People operations front and center",
			Icon:        "heart",
			ForRoles:    []Role{RoleHR, RoleAdmin},
			Widgets: presetWidgets(
				slot("quick-stats", SizeFull),
				slot("headcount", SizeMedium),
				slot("leave-requests", SizeLarge),
				slot("recruitment", SizeMedium),
				slot("onboarding", SizeMedium),
				slot("employee-directory", SizeLarge),
				slot("announcements", SizeMedium),
			),
		},
		{
			ID:          "finance-focus",
			Name:        "Finance Focus",
			Description: "Cash, payroll and spend",
			Icon:        "dollar-sign",
			ForRoles:    []Role{RoleFinance, RoleAdmin},
			Widgets: presetWidgets(
				slot("quick-stats", SizeFull),
				slot("invoices", SizeLarge),
				slot("cash-flow", SizeLarge),
				slot("payroll-summary", SizeLarge),
				slot("budget", SizeMedium),
				slot("expense-approvals", SizeMedium),
			),
		},
	}
}
