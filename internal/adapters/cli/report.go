package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	domainSimulation "github.com/andrescamacho/harbor-go/internal/domain/simulation"
	"github.com/andrescamacho/harbor-go/internal/domain/stats"
)

// FormatReport renders the final report of a run
func FormatReport(report *domainSimulation.Report) string {
	if report == nil {
		return "(no report)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", report.RunID)
	fmt.Fprintf(&b, "  End reason:     %s\n", report.EndReason)
	fmt.Fprintf(&b, "  Days elapsed:   %d\n", report.DaysElapsed)
	fmt.Fprintf(&b, "  Tons offered:   %d\n", report.TotalOffered)
	b.WriteString("\n")
	b.WriteString(FormatSnapshot(report.Final))
	return b.String()
}

// FormatSnapshot renders the product, port and fleet tables of one day
func FormatSnapshot(s stats.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Day %d\n\n", s.Day)

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "GOOD\tIN PORTS\tON SHIPS\tDELIVERED\tEXPIRED PORT\tEXPIRED SHIP\tTOP OFFER\tTOP DEMAND\t")
	for _, p := range s.Products {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t\n",
			p.GoodID, p.AvailableInPorts, p.OnShips, p.Delivered,
			p.ExpiredInPorts, p.ExpiredOnShips,
			portLabel(p.TopOfferingPort), portLabel(p.TopDemandingPort))
	}
	totals := s.Totals()
	fmt.Fprintf(w, "all\t%d\t%d\t%d\t%d\t%d\t\t\t\n",
		totals.AvailableInPorts, totals.OnShips, totals.Delivered,
		totals.ExpiredInPorts, totals.ExpiredOnShips)
	w.Flush()

	b.WriteString("\n")
	w = tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "PORT\tAVAILABLE\tSHIPPED\tDELIVERED\tEXPIRED\tBERTHS\t")
	for _, p := range s.Ports {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d/%d\t\n",
			p.PortID, p.TonsAvailable, p.TonsShipped, p.TonsDelivered, p.TonsExpired,
			p.BerthsOccupied, p.BerthsTotal)
	}
	w.Flush()

	fmt.Fprintf(&b, "\nShips: %d at sea empty, %d at sea loaded, %d in port\n",
		s.Fleet.Empty, s.Fleet.Loaded, s.Fleet.InPort)
	return b.String()
}

// FormatRunLine renders one row of the runs list
func FormatRunLine(run *domainSimulation.Run) string {
	outcome := "running"
	if run.IsFinished() {
		outcome = string(run.EndReason)
	}
	delivered := "-"
	if run.Final != nil {
		delivered = fmt.Sprintf("%d", run.Final.Totals().Delivered)
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%s\t",
		run.ID, run.Preset, run.StartedAt.Format("2006-01-02 15:04:05"),
		outcome, run.DaysElapsed, delivered)
}

func portLabel(id int) string {
	if id == stats.NoPort {
		return "-"
	}
	return fmt.Sprintf("%d", id)
}
