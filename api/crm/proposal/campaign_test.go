package proposal

import (
	"context"
	"errors"
	"testing"

	"MedFieldCRM/api/crm/rates"

	"github.com/shopspring/decimal"
)

type fakeCampaignSource struct {
	campaign Campaign
	err      error
	calls    int
}

func (f *fakeCampaignSource) FetchCampaign(ctx context.Context, campaignID string) (Campaign, error) {
	f.calls++
	if f.err != nil {
		return Campaign{}, f.err
	}
	return f.campaign, nil
}

func bundleCampaign() Campaign {
	override := d("75")
	return Campaign{
		ID:                 "camp-1",
		Name:               "Q3 Hip Bundle",
		DiscountPercentage: d("15"),
		Items: []CampaignItem{
			{
				ProductID:       "p1",
				ProductName:     "Hip Stem",
				Quantity:        d("2"),
				ProductPrice:    d("100"),
				ProductCurrency: rates.USD,
			},
			{
				ProductID:        "p2",
				ProductName:      "Acetabular Cup",
				Quantity:         d("4"),
				UnitPrice:        &override,
				ExcessPercentage: d("25"),
				ProductPrice:     d("90"),
				ProductCurrency:  rates.TRY,
			},
		},
	}
}

func TestExpandCampaign(t *testing.T) {
	src := &fakeCampaignSource{campaign: bundleCampaign()}
	items, discount, err := ExpandCampaign(context.Background(), src, rates.NewStaticProvider(), "camp-1", rates.TRY)
	if err != nil {
		t.Fatal(err)
	}
	if !discount.Equal(d("15")) {
		t.Errorf("discount = %s, want 15", discount)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	// missing unit price falls back to the product price
	if !items[0].UnitPrice.Equal(d("100")) {
		t.Errorf("item 0 unit price = %s, want product price 100", items[0].UnitPrice)
	}
	// 2 x 100 USD converted into TRY
	if !items[0].Total.Equal(d("7584")) {
		t.Errorf("item 0 total = %s, want 7584", items[0].Total)
	}

	// explicit unit price wins over the product price
	if !items[1].UnitPrice.Equal(d("75")) {
		t.Errorf("item 1 unit price = %s, want override 75", items[1].UnitPrice)
	}
	if !items[1].Total.Equal(d("300")) {
		t.Errorf("item 1 total = %s, want 300", items[1].Total)
	}
	if !items[1].EffectiveQuantity().Equal(d("5")) {
		t.Errorf("item 1 effective quantity = %s, want 5", items[1].EffectiveQuantity())
	}
}

func TestExpandCampaignFetchFailure(t *testing.T) {
	src := &fakeCampaignSource{err: errors.New("campaign not found or not active")}
	items, discount, err := ExpandCampaign(context.Background(), src, rates.NewStaticProvider(), "gone", rates.TRY)
	if err == nil {
		t.Fatal("expected error")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Errorf("expected FetchError, got %T", err)
	}
	if items != nil || !discount.IsZero() {
		t.Errorf("fetch failure must not return partial data: %v, %s", items, discount)
	}
}

func TestExpandCampaignBadItem(t *testing.T) {
	camp := bundleCampaign()
	camp.Items[1].Quantity = decimal.Zero
	src := &fakeCampaignSource{campaign: camp}
	items, _, err := ExpandCampaign(context.Background(), src, rates.NewStaticProvider(), "camp-1", rates.TRY)
	if err == nil {
		t.Fatal("expected error for invalid campaign item")
	}
	if items != nil {
		t.Errorf("invalid item must not return a partial list: %v", items)
	}
}

func TestApplyCampaignReplacesManualItems(t *testing.T) {
	c := NewCalculator(rates.NewStaticProvider(), rates.TRY)
	c.AddItem(mustItem(t, "3", "10", rates.TRY, "0"))
	c.AddItem(mustItem(t, "1", "99", rates.TRY, "0"))

	src := &fakeCampaignSource{campaign: bundleCampaign()}
	items, discount, err := ExpandCampaign(context.Background(), src, rates.NewStaticProvider(), "camp-1", c.Currency())
	if err != nil {
		t.Fatal(err)
	}
	c.ApplyCampaign("camp-1", items, discount)

	got := c.Items()
	if len(got) != 2 {
		t.Fatalf("manual items survived campaign apply: %d items", len(got))
	}
	if c.CampaignID() != "camp-1" {
		t.Errorf("campaign id = %q", c.CampaignID())
	}
}
