package telegram

import (
	"fmt"
	"strings"
	"time"

	"recipe-planner/internal/grocery"
	"recipe-planner/internal/mealplan"
	"recipe-planner/internal/metrics"
)

// formatWeek lists the plan's entries for the Monday-Sunday week of day.
func formatWeek(plan *mealplan.Plan, day time.Time) string {
	start, _ := mealplan.WeekOf(day)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *%s*\n", escape(plan.Name))
	empty := true
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		entries := plan.EntriesOn(d.Format(mealplan.DateLayout))
		if len(entries) == 0 {
			continue
		}
		empty = false
		fmt.Fprintf(&sb, "\n*%s %s*\n", d.Weekday(), d.Format("Jan 2"))
		for _, e := range entries {
			fmt.Fprintf(&sb, "• %s: %s (%d)", e.Slot, escape(e.RecipeTitle), e.Servings)
			if e.Note != "" {
				fmt.Fprintf(&sb, " _%s_", escape(e.Note))
			}
			sb.WriteString("\n")
		}
	}
	if empty {
		sb.WriteString("\n_Nothing planned this week._\n")
	}
	return sb.String()
}

// formatGrocery groups unchecked items by category; checked items are
// counted only.
func formatGrocery(list *grocery.List) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 *%s*\n", escape(list.Name))

	category, checked := "", 0
	for _, it := range list.Items {
		if it.Checked {
			checked++
			continue
		}
		if it.Category != category && it.Category != "" {
			category = it.Category
			fmt.Fprintf(&sb, "\n*%s*\n", strings.ToUpper(category[:1])+category[1:])
		}
		sb.WriteString("• ")
		if it.Quantity.Valid {
			sb.WriteString(it.Quantity.Decimal.String())
			if it.Unit != "" {
				sb.WriteString(" " + it.Unit)
			}
			sb.WriteString(" ")
		}
		sb.WriteString(escape(it.Name))
		sb.WriteString("\n")
	}
	if checked > 0 {
		fmt.Fprintf(&sb, "\n✔️ %d already in the basket\n", checked)
	}
	return sb.String()
}

func formatUsage(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens, %.1f quota points (%d calls)\n",
			d.Date, d.TotalPrompt+d.TotalCompletion, d.QuotaPoints, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}
