package notify

import (
	"fmt"
	"strings"
	"time"

	"levelwatch/internal/report"
)

// RenderTrigger formats a trigger event for delivery. Plain text keeps the
// same message valid for webhooks and email bodies alike.
func RenderTrigger(ev TriggerEvent) Message {
	arrow := "↑"
	verb := "broke above"
	if ev.Direction == report.DirectionDownside {
		arrow = "↓"
		verb = "fell through"
	}
	subject := fmt.Sprintf("%s alert: %s %s %s", ev.Symbol, ev.LevelName, arrow, ev.LevelPrice)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s (level %s, now %s)\n", ev.Symbol, verb, ev.LevelName, ev.LevelPrice, ev.Price)
	if ev.Action != "" {
		fmt.Fprintf(&b, "Action: %s\n", ev.Action)
	}
	if ev.Reason != "" {
		fmt.Fprintf(&b, "Why: %s\n", ev.Reason)
	}
	if ev.ColdStart {
		b.WriteString("Note: cold-start trigger, no prior sample to bracket against.\n")
	}
	fmt.Fprintf(&b, "At: %s", ev.At.UTC().Format(time.RFC3339))
	return Message{Subject: subject, Body: b.String()}
}

// RenderSystemNotice wraps an operational notice (not tied to a level).
func RenderSystemNotice(subject, body string) Message {
	return Message{Subject: "levelwatch: " + subject, Body: body}
}
