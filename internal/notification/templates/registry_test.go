package templates

import (
	"sort"
	"testing"

	"order-notifications/internal/models"
	"order-notifications/internal/notification/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	templated := []models.Event{
		models.EventOrderConfirmation,
		models.EventOrderShipped,
		models.EventOutForDelivery,
		models.EventDelivered,
	}
	for _, ch := range models.Channels {
		for _, ev := range templated {
			tpl, ok := Lookup(ch, ev)
			require.True(t, ok, "%s/%s", ch, ev)
			assert.Equal(t, ch, tpl.Channel)
			assert.Equal(t, ev, tpl.Event)
			assert.Equal(t, string(ch)+"_"+string(ev), tpl.ID)
		}

		_, ok := Lookup(ch, models.EventCancelled)
		assert.False(t, ok, "cancelled is reserved and has no %s template", ch)
	}

	_, ok := Lookup("push", models.EventDelivered)
	assert.False(t, ok)
}

func TestCatalog_TokensDeclaredAndSupported(t *testing.T) {
	for _, tpl := range All() {
		t.Run(tpl.ID, func(t *testing.T) {
			used := append(render.Tokens(tpl.Subject), render.Tokens(tpl.Body)...)
			used = dedupe(used)

			declared := append([]string(nil), tpl.Tokens...)
			sort.Strings(declared)
			assert.Equal(t, declared, used, "declared tokens must match the tokens used")

			for _, tok := range declared {
				assert.True(t, render.IsSupported(tok), "unsupported token %q", tok)
			}
		})
	}
}

func TestCatalog_ChannelShape(t *testing.T) {
	for _, tpl := range All() {
		switch tpl.Channel {
		case models.ChannelEmail:
			assert.NotEmpty(t, tpl.Subject, tpl.ID)
			assert.Contains(t, tpl.Subject, "{{orderId}}", tpl.ID)
		case models.ChannelSMS:
			assert.Empty(t, tpl.Subject, tpl.ID)
			assert.NotContains(t, tpl.Tokens, render.TokenItemsList, tpl.ID)
			assert.NotContains(t, tpl.Body, "{{itemsList}}", tpl.ID)
		}
	}
}

func TestAll_SortedAndComplete(t *testing.T) {
	all := All()
	assert.Len(t, all, 8)
	assert.True(t, sort.SliceIsSorted(all, func(i, j int) bool { return all[i].ID < all[j].ID }))
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
