package proposal

import (
	"context"
	"database/sql"
	"errors"

	"MedFieldCRM/api/crm/rates"

	"github.com/shopspring/decimal"
)

// Campaign is a predefined bundle of products with its own discount.
type Campaign struct {
	ID                 string
	Name               string
	DiscountPercentage decimal.Decimal
	Items              []CampaignItem
}

// CampaignItem carries the campaign entry plus the referenced product's
// own price and currency, so expansion can default a missing unit price.
type CampaignItem struct {
	ProductID        string
	ProductName      string
	Quantity         decimal.Decimal
	UnitPrice        *decimal.Decimal // nil means "use the product price"
	ExcessPercentage decimal.Decimal
	ProductPrice     decimal.Decimal
	ProductCurrency  rates.Currency
}

type CampaignSource interface {
	FetchCampaign(ctx context.Context, campaignID string) (Campaign, error)
}

// ExpandCampaign turns a campaign's fixed item set into proposal lines in
// the given proposal currency. A fetch failure returns no items and the
// error; a partially-populated list is never returned.
func ExpandCampaign(ctx context.Context, src CampaignSource, rp rates.RateProvider, campaignID string, cur rates.Currency) ([]Item, decimal.Decimal, error) {
	camp, err := src.FetchCampaign(ctx, campaignID)
	if err != nil {
		return nil, decimal.Zero, &FetchError{Op: "campaign " + campaignID, Err: err}
	}

	items := make([]Item, 0, len(camp.Items))
	for _, ci := range camp.Items {
		unitPrice := ci.ProductPrice
		if ci.UnitPrice != nil {
			unitPrice = *ci.UnitPrice
		}
		it, err := NewItem(ci.ProductID, ci.ProductName, ci.Quantity, unitPrice, ci.ProductCurrency, ci.ExcessPercentage)
		if err != nil {
			return nil, decimal.Zero, &FetchError{Op: "campaign " + campaignID, Err: err}
		}
		it.Total = rates.Convert(rp, it.OriginalTotal, it.ProductCurrency, cur)
		items = append(items, it)
	}
	return items, camp.DiscountPercentage, nil
}

// SQLCampaignSource reads campaigns and their items from Postgres.
type SQLCampaignSource struct {
	DB *sql.DB
}

func (s *SQLCampaignSource) FetchCampaign(ctx context.Context, campaignID string) (Campaign, error) {
	var camp Campaign
	var discount string
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, discount_percentage FROM campaigns
		 WHERE id = $1 AND status = 'active'`, campaignID,
	).Scan(&camp.ID, &camp.Name, &discount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, errors.New("campaign not found or not active")
		}
		return Campaign{}, err
	}
	camp.DiscountPercentage, err = decimal.NewFromString(discount)
	if err != nil {
		return Campaign{}, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT ci.product_id, p.name, ci.quantity, ci.unit_price, ci.excess_percentage,
		        p.price, p.currency
		 FROM campaign_items ci
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.campaign_id = $1
		 ORDER BY ci.id`, campaignID)
	if err != nil {
		return Campaign{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ci                       CampaignItem
			qty, excess, price       string
			unitPrice                sql.NullString
			currency                 string
		)
		if err := rows.Scan(&ci.ProductID, &ci.ProductName, &qty, &unitPrice, &excess, &price, &currency); err != nil {
			return Campaign{}, err
		}
		if ci.Quantity, err = decimal.NewFromString(qty); err != nil {
			return Campaign{}, err
		}
		if ci.ExcessPercentage, err = decimal.NewFromString(excess); err != nil {
			return Campaign{}, err
		}
		if ci.ProductPrice, err = decimal.NewFromString(price); err != nil {
			return Campaign{}, err
		}
		if unitPrice.Valid {
			up, err := decimal.NewFromString(unitPrice.String)
			if err != nil {
				return Campaign{}, err
			}
			ci.UnitPrice = &up
		}
		ci.ProductCurrency = rates.Currency(currency)
		camp.Items = append(camp.Items, ci)
	}
	return camp, rows.Err()
}
