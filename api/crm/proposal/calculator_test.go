package proposal

import (
	"testing"

	"MedFieldCRM/api/crm/rates"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustItem(t *testing.T, qty, price string, cur rates.Currency, excess string) Item {
	t.Helper()
	it, err := NewItem("p1", "Titanium Implant", d(qty), d(price), cur, d(excess))
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	return it
}

func TestNewItemValidation(t *testing.T) {
	cases := []struct {
		name  string
		qty   string
		price string
		cur   rates.Currency
		exc   string
	}{
		{"zero quantity", "0", "10", rates.TRY, "0"},
		{"negative quantity", "-1", "10", rates.TRY, "0"},
		{"negative price", "1", "-10", rates.TRY, "0"},
		{"negative excess", "1", "10", rates.TRY, "-5"},
		{"bad currency", "1", "10", "GBP", "0"},
	}
	for _, c := range cases {
		_, err := NewItem("p1", "x", d(c.qty), d(c.price), c.cur, d(c.exc))
		if err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

func TestItemOriginalTotal(t *testing.T) {
	it := mustItem(t, "10", "100", rates.TRY, "0")
	if !it.OriginalTotal.Equal(d("1000")) {
		t.Errorf("OriginalTotal = %s, want 1000", it.OriginalTotal)
	}
}

func TestEffectiveQuantity(t *testing.T) {
	it := mustItem(t, "10", "100", rates.TRY, "20")
	if !it.EffectiveQuantity().Equal(d("12")) {
		t.Errorf("EffectiveQuantity = %s, want 12", it.EffectiveQuantity())
	}
	// bonus units never change the money
	if !it.OriginalTotal.Equal(d("1000")) {
		t.Errorf("excess changed OriginalTotal: %s", it.OriginalTotal)
	}
}

func TestTotalsFullChain(t *testing.T) {
	c := NewCalculator(rates.NewStaticProvider(), rates.TRY)
	c.AddItem(mustItem(t, "10", "100", rates.TRY, "0"))
	if err := c.SetGeneralDiscount(d("10")); err != nil {
		t.Fatal(err)
	}
	if err := c.SetDownPayment(d("20")); err != nil {
		t.Fatal(err)
	}
	if err := c.SetInstallmentCount(3); err != nil {
		t.Fatal(err)
	}

	tot := c.Totals()
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"subtotal", tot.Subtotal, "1000"},
		{"discount", tot.DiscountAmount, "100"},
		{"after discount", tot.TotalAfterDiscount, "900"},
		{"down payment", tot.DownPaymentAmount, "180"},
		{"remaining", tot.RemainingAmount, "720"},
		{"installment", tot.InstallmentAmount, "240"},
	}
	for _, c := range checks {
		if !c.got.Equal(d(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
}

func TestZeroInstallmentsYieldZeroAmount(t *testing.T) {
	c := NewCalculator(rates.NewStaticProvider(), rates.TRY)
	c.AddItem(mustItem(t, "1", "900", rates.TRY, "0"))
	tot := c.Totals()
	if !tot.InstallmentAmount.IsZero() {
		t.Errorf("installment with count 0 = %s, want 0", tot.InstallmentAmount)
	}
}

func TestAddItemConvertsToProposalCurrency(t *testing.T) {
	c := NewCalculator(rates.NewStaticProvider(), rates.TRY)
	c.AddItem(mustItem(t, "2", "100", rates.USD, "0"))
	tot := c.Totals()
	if !tot.Subtotal.Equal(d("7584")) {
		t.Errorf("2 x 100 USD in TRY = %s, want 7584", tot.Subtotal)
	}
}

func TestSetCurrencyRecomputesFromOriginal(t *testing.T) {
	c := NewCalculator(rates.NewStaticProvider(), rates.TRY)
	c.AddItem(mustItem(t, "2", "100", rates.USD, "0"))

	if err := c.SetCurrency(rates.EUR); err != nil {
		t.Fatal(err)
	}
	if err := c.SetCurrency(rates.USD); err != nil {
		t.Fatal(err)
	}
	// back in the product's own currency the total is exact again
	items := c.Items()
	if !items[0].Total.Equal(d("200")) {
		t.Errorf("after flips, USD total = %s, want exactly 200", items[0].Total)
	}
	if !items[0].OriginalTotal.Equal(d("200")) {
		t.Errorf("OriginalTotal mutated: %s", items[0].OriginalTotal)
	}
}

func TestSetCurrencyRejectsUnknown(t *testing.T) {
	c := NewCalculator(rates.NewStaticProvider(), rates.TRY)
	if err := c.SetCurrency("GBP"); err == nil {
		t.Error("expected error for unsupported currency")
	}
	if c.Currency() != rates.TRY {
		t.Errorf("currency changed on failed set: %s", c.Currency())
	}
}

func TestNegativeInputsRejected(t *testing.T) {
	c := NewCalculator(rates.NewStaticProvider(), rates.TRY)
	if err := c.SetGeneralDiscount(d("-1")); err == nil {
		t.Error("negative discount accepted")
	}
	if err := c.SetDownPayment(d("-1")); err == nil {
		t.Error("negative down payment accepted")
	}
	if err := c.SetInstallmentCount(-1); err == nil {
		t.Error("negative installment count accepted")
	}
}

func TestCampaignLocksDiscount(t *testing.T) {
	c := NewCalculator(rates.NewStaticProvider(), rates.TRY)
	c.AddItem(mustItem(t, "1", "50", rates.TRY, "0"))

	campaignItems := []Item{mustItem(t, "5", "80", rates.TRY, "10")}
	c.ApplyCampaign("camp-1", campaignItems, d("15"))

	// campaign replaces manual items entirely
	if len(c.Items()) != 1 || !c.Items()[0].UnitPrice.Equal(d("80")) {
		t.Fatalf("campaign items did not replace manual items: %+v", c.Items())
	}
	if !c.GeneralDiscountPercent().Equal(d("15")) {
		t.Errorf("campaign discount = %s, want 15", c.GeneralDiscountPercent())
	}
	if err := c.SetGeneralDiscount(d("50")); err == nil {
		t.Error("discount editable while campaign is applied")
	}

	c.ClearCampaign()
	if len(c.Items()) != 0 {
		t.Errorf("items survive ClearCampaign: %+v", c.Items())
	}
	if !c.GeneralDiscountPercent().IsZero() {
		t.Errorf("discount not reset by ClearCampaign: %s", c.GeneralDiscountPercent())
	}
	if err := c.SetGeneralDiscount(d("5")); err != nil {
		t.Errorf("discount still locked after ClearCampaign: %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	c := NewCalculator(rates.NewStaticProvider(), rates.TRY)
	c.AddItem(mustItem(t, "1", "10", rates.TRY, "0"))
	c.AddItem(mustItem(t, "1", "20", rates.TRY, "0"))

	c.RemoveItem(5) // out of range is a no-op
	if len(c.Items()) != 2 {
		t.Fatalf("out-of-range remove changed items")
	}
	c.RemoveItem(0)
	items := c.Items()
	if len(items) != 1 || !items[0].UnitPrice.Equal(d("20")) {
		t.Errorf("wrong item removed: %+v", items)
	}
}
