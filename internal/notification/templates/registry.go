// Package templates holds the compiled-in catalog of order notification
// templates, keyed by channel and lifecycle event.
package templates

import (
	"sort"

	"order-notifications/internal/models"
)

// Template is one catalog entry. Tokens lists every {{placeholder}} used in
// Subject and Body.
type Template struct {
	ID      string
	Channel models.Channel
	Event   models.Event
	Subject string // email only
	Body    string
	Tokens  []string
}

type key struct {
	channel models.Channel
	event   models.Event
}

var catalog = func() map[key]Template {
	m := make(map[key]Template, len(emailTemplates)+len(smsTemplates))
	for _, list := range [][]Template{emailTemplates, smsTemplates} {
		for _, t := range list {
			m[key{t.Channel, t.Event}] = t
		}
	}
	return m
}()

// Lookup returns the template for a channel and event. A miss means there is
// nothing to send on that channel for that event.
func Lookup(channel models.Channel, event models.Event) (Template, bool) {
	t, ok := catalog[key{channel, event}]
	return t, ok
}

// All lists the catalog sorted by ID.
func All() []Template {
	out := make([]Template, 0, len(catalog))
	for _, t := range catalog {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
