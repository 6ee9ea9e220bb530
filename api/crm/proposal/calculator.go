package proposal

import (
	"MedFieldCRM/api/crm/rates"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Item is one proposal line. OriginalTotal is denominated in the product's
// own currency and never changes; Total is the conversion into the
// proposal currency and is recomputed from OriginalTotal whenever the
// proposal currency flips, so conversion error cannot compound.
type Item struct {
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ProductCurrency  rates.Currency  `json:"product_currency"`
	ExcessPercentage decimal.Decimal `json:"excess_percentage"`
	Total            decimal.Decimal `json:"total"`
	OriginalTotal    decimal.Decimal `json:"original_total"`
}

// NewItem validates inputs and derives OriginalTotal. Negative numbers are
// rejected here, not clamped.
func NewItem(productID, productName string, qty, unitPrice decimal.Decimal, cur rates.Currency, excessPct decimal.Decimal) (Item, error) {
	if qty.Sign() <= 0 {
		return Item{}, &ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	if unitPrice.Sign() < 0 {
		return Item{}, &ValidationError{Field: "unit_price", Reason: "cannot be negative"}
	}
	if excessPct.Sign() < 0 {
		return Item{}, &ValidationError{Field: "excess_percentage", Reason: "cannot be negative"}
	}
	if !rates.IsSupported(cur) {
		return Item{}, &ValidationError{Field: "product_currency", Reason: "must be one of TRY, USD, EUR"}
	}
	return Item{
		ProductID:        productID,
		ProductName:      productName,
		Quantity:         qty,
		UnitPrice:        unitPrice,
		ProductCurrency:  cur,
		ExcessPercentage: excessPct,
		OriginalTotal:    qty.Mul(unitPrice),
	}, nil
}

// EffectiveQuantity includes the bonus units granted by the excess
// percentage. Display only; it never enters the monetary totals.
func (it Item) EffectiveQuantity() decimal.Decimal {
	return it.Quantity.Add(it.Quantity.Mul(it.ExcessPercentage).Div(hundred))
}

// Totals are the derived figures shown on the proposal form, rounded to
// two places in the proposal currency.
type Totals struct {
	Subtotal               decimal.Decimal `json:"subtotal"`
	DiscountAmount         decimal.Decimal `json:"discount_amount"`
	TotalAfterDiscount     decimal.Decimal `json:"total_after_discount"`
	DownPaymentAmount      decimal.Decimal `json:"down_payment_amount"`
	RemainingAmount        decimal.Decimal `json:"remaining_amount"`
	InstallmentAmount      decimal.Decimal `json:"installment_amount"`
	TotalQuantityWithBonus decimal.Decimal `json:"total_quantity_with_bonus"`
}

// Calculator recomputes derived state for an in-progress proposal. All
// mutation goes through methods so the item invariants hold.
type Calculator struct {
	rates    rates.RateProvider
	currency rates.Currency
	items    []Item

	generalDiscountPercent decimal.Decimal
	downPaymentPercent     decimal.Decimal
	installmentCount       int

	campaignID string // non-empty locks the discount
}

func NewCalculator(p rates.RateProvider, cur rates.Currency) *Calculator {
	return &Calculator{rates: p, currency: cur}
}

func (c *Calculator) Currency() rates.Currency { return c.currency }
func (c *Calculator) CampaignID() string       { return c.campaignID }

func (c *Calculator) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// AddItem converts the line into the proposal currency and appends it.
func (c *Calculator) AddItem(it Item) {
	it.Total = rates.Convert(c.rates, it.OriginalTotal, it.ProductCurrency, c.currency)
	c.items = append(c.items, it)
}

func (c *Calculator) RemoveItem(i int) {
	if i < 0 || i >= len(c.items) {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
}

// SetCurrency switches the proposal currency and recomputes every item's
// Total from its immutable OriginalTotal, never from the stale Total.
func (c *Calculator) SetCurrency(cur rates.Currency) error {
	if !rates.IsSupported(cur) {
		return &ValidationError{Field: "currency", Reason: "must be one of TRY, USD, EUR"}
	}
	c.currency = cur
	for i := range c.items {
		c.items[i].Total = rates.Convert(c.rates, c.items[i].OriginalTotal, c.items[i].ProductCurrency, cur)
	}
	return nil
}

func (c *Calculator) SetGeneralDiscount(pct decimal.Decimal) error {
	if c.campaignID != "" {
		return &ValidationError{Field: "discount_percentage", Reason: "locked by the selected campaign"}
	}
	if pct.Sign() < 0 {
		return &ValidationError{Field: "discount_percentage", Reason: "cannot be negative"}
	}
	c.generalDiscountPercent = pct
	return nil
}

func (c *Calculator) SetDownPayment(pct decimal.Decimal) error {
	if pct.Sign() < 0 {
		return &ValidationError{Field: "down_payment_percentage", Reason: "cannot be negative"}
	}
	c.downPaymentPercent = pct
	return nil
}

func (c *Calculator) SetInstallmentCount(n int) error {
	if n < 0 {
		return &ValidationError{Field: "installment_count", Reason: "cannot be negative"}
	}
	c.installmentCount = n
	return nil
}

func (c *Calculator) GeneralDiscountPercent() decimal.Decimal { return c.generalDiscountPercent }
func (c *Calculator) DownPaymentPercent() decimal.Decimal     { return c.downPaymentPercent }
func (c *Calculator) InstallmentCount() int                   { return c.installmentCount }

// ApplyCampaign replaces the whole item list with the campaign's items and
// takes the campaign discount, locking it against manual edits.
func (c *Calculator) ApplyCampaign(campaignID string, items []Item, discountPct decimal.Decimal) {
	c.items = nil
	for _, it := range items {
		c.AddItem(it)
	}
	c.generalDiscountPercent = discountPct
	c.campaignID = campaignID
}

// ClearCampaign drops back to "no campaign": items are cleared and the
// discount unlocks at zero.
func (c *Calculator) ClearCampaign() {
	c.items = nil
	c.campaignID = ""
	c.generalDiscountPercent = decimal.Zero
}

// Totals recomputes every derived figure from scratch. An installment
// count of zero yields a zero installment amount, not a division by zero.
func (c *Calculator) Totals() Totals {
	subtotal := decimal.Zero
	bonusQty := decimal.Zero
	for _, it := range c.items {
		subtotal = subtotal.Add(it.Total)
		bonusQty = bonusQty.Add(it.EffectiveQuantity())
	}

	discountAmount := subtotal.Mul(c.generalDiscountPercent).Div(hundred)
	totalAfterDiscount := subtotal.Sub(discountAmount)
	downPaymentAmount := totalAfterDiscount.Mul(c.downPaymentPercent).Div(hundred)
	remaining := totalAfterDiscount.Sub(downPaymentAmount)

	installment := decimal.Zero
	if c.installmentCount > 0 {
		installment = remaining.DivRound(decimal.NewFromInt(int64(c.installmentCount)), 8)
	}

	return Totals{
		Subtotal:               subtotal.Round(2),
		DiscountAmount:         discountAmount.Round(2),
		TotalAfterDiscount:     totalAfterDiscount.Round(2),
		DownPaymentAmount:      downPaymentAmount.Round(2),
		RemainingAmount:        remaining.Round(2),
		InstallmentAmount:      installment.Round(2),
		TotalQuantityWithBonus: bonusQty,
	}
}
