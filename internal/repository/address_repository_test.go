package repository

import "testing"

func TestAddressOrderWhitelist(t *testing.T) {
	cases := []struct {
		field, rule string
		want        string
	}{
		{"name", "asc", " ORDER BY name ASC"},
		{"birthday", "desc", " ORDER BY birthday DESC"},
		{"ab_id", "", " ORDER BY ab_id ASC"},
		// Unknown fields fall back to the primary key instead of reaching
		// the ORDER BY clause.
		{"name; DROP TABLE address_book", "desc", " ORDER BY ab_id DESC"},
		{"", "weird", " ORDER BY ab_id ASC"},
	}
	for _, c := range cases {
		got := addressOrder(AddressFilter{SortField: c.field, SortRule: c.rule})
		if got != c.want {
			t.Errorf("addressOrder(%q,%q) = %q, want %q", c.field, c.rule, got, c.want)
		}
	}
}
