// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// RenderReport formats a SnapshotReport as a human-readable CLI report,
// locale-aware thousands separators on the missed-deadline counter (x/text/
// message) and title-cased module names (x/text/cases).
func RenderReport(report SnapshotReport) string {
	p := message.NewPrinter(language.English)
	titler := cases.Title(language.English)

	var b strings.Builder
	fmt.Fprintf(&b, "rtcore snapshot (request %s)\n", report.RequestID)

	fmt.Fprintf(&b, "\nModules (%d):\n", len(report.Modules))
	for _, m := range report.Modules {
		fmt.Fprintf(&b, "  [%d] %s\n", m.Handle, titler.String(m.Name))
	}

	fmt.Fprintf(&b, "\nTasks (%d):\n", len(report.Tasks))
	for _, t := range report.Tasks {
		p.Fprintf(&b, "  [%d] %s state=%s cpu=%d prio=%d period=%s missed=%v\n",
			t.ID, t.Name, t.State, t.CPU, t.Priority, t.Period, number.Decimal(t.MissedDeadlines))
	}

	return b.String()
}
