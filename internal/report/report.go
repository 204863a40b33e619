package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
)

const dateLayout = "2006-01-02"

// Bucket headers.
const (
	unresolvableHeader = "The following certs do not have associated DNS records:"
	unreachableHeader  = "The following certs have DNS records, but did not accept a TLS connection:"
	inspectionHeader   = "The following certs accepted a connection, but the certificate could not be inspected:"
)

// Renderer writes an audit report for humans or machines.
type Renderer interface {
	Render(w io.Writer, report entities.Report) error
}

// JSON renders the report as a single JSON document.
type JSON struct{}

// Render implements Renderer.
func (JSON) Render(w io.Writer, report entities.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Text renders the report as an indented listing with highlights.
type Text struct {
	alert *color.Color
	warn  *color.Color
	ok    *color.Color
}

// NewText returns Text renderer. Colors are dropped when noColor is set.
func NewText(noColor bool) Text {
	t := Text{
		alert: color.New(color.FgRed),
		warn:  color.New(color.FgYellow),
		ok:    color.New(color.FgGreen),
	}
	if noColor {
		t.alert.DisableColor()
		t.warn.DisableColor()
		t.ok.DisableColor()
	} else {
		t.alert.EnableColor()
		t.warn.EnableColor()
		t.ok.EnableColor()
	}

	return t
}

// Render implements Renderer. Every tag of an outcome gets its own
// highlight, so a certificate both flagged and expired shows both.
func (t Text) Render(w io.Writer, report entities.Report) error {
	var b strings.Builder

	for _, o := range report.Outcomes {
		flagged := o.Tags.Has(entities.TagFlaggedCA)
		expired := o.Tags.Has(entities.TagExpired)

		issuer := o.IssuerOrg
		if flagged || expired {
			issuer = t.warn.Sprint(issuer)
		}
		issued := o.NotBefore.UTC().Format(dateLayout)
		if flagged {
			issued = t.alert.Sprint(issued)
		}
		expires := o.NotAfter.UTC().Format(dateLayout)
		if expired {
			expires = t.alert.Sprint(expires)
		}

		fmt.Fprintln(&b, o.CommonName)
		fmt.Fprintf(&b, "    Issuer:     %s\n", issuer)
		fmt.Fprintf(&b, "    Issue Date: %s\n", issued)
		fmt.Fprintf(&b, "    Exp Date:   %s\n", expires)
		fmt.Fprintf(&b, "    Status:     %s\n", t.status(o.Tags))
	}

	writeBucket(&b, unresolvableHeader, report.Unresolvable)
	writeBucket(&b, unreachableHeader, report.Unreachable)
	writeBucket(&b, inspectionHeader, report.InspectionFailures)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (t Text) status(tags entities.Tags) string {
	if tags.Empty() {
		return t.ok.Sprint("compliant")
	}

	names := make([]string, 0, 2)
	for _, tag := range tags.List() {
		names = append(names, t.alert.Sprint(tag.String()))
	}
	return strings.Join(names, ", ")
}

func writeBucket(b *strings.Builder, header string, hosts []string) {
	if len(hosts) == 0 {
		return
	}

	fmt.Fprintf(b, "\n%s\n", header)
	for _, h := range hosts {
		fmt.Fprintln(b, h)
	}
}
