package allMaster

import "testing"

func TestNormalizeCurrency(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "TRY", true},
		{"usd", "USD", true},
		{" try ", "TRY", true},
		{"EUR", "EUR", true},
		{"GBP", "", false},
		{"123", "", false},
	}
	for _, c := range cases {
		got, err := normalizeCurrency(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("normalizeCurrency(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("normalizeCurrency(%q) accepted an unsupported currency", c.in)
		}
	}
}

func TestProductSheetRejectsUnknownCurrency(t *testing.T) {
	csvData := []byte("sku,name,price,currency\nIMP-1,Hip Stem,100,GBP\n")
	records, err := parseProductSheet(csvData, "products.csv")
	if err != nil {
		t.Fatal(err)
	}
	cols, err := mapProductHeaders(records[0])
	if err != nil {
		t.Fatal(err)
	}
	idx, ok := cols["currency"]
	if _, err := normalizeCurrency(cellAt(records[1], idx, ok)); err == nil {
		t.Error("a sheet row with currency GBP passed validation")
	}
}
