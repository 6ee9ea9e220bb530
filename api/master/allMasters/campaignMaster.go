package allMaster

import (
	"encoding/json"
	"net/http"
	"strings"

	"MedFieldCRM/api"
	"MedFieldCRM/api/constants"
	middlewares "MedFieldCRM/api/middlewares"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type CampaignItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	// Optional override; empty means the product master price applies.
	UnitPrice        string `json:"unit_price"`
	ExcessPercentage string `json:"excess_percentage"`
}

type CampaignMasterRequest struct {
	UserID             string                `json:"user_id"`
	Name               string                `json:"name"`
	Description        string                `json:"description"`
	DiscountPercentage string                `json:"discount_percentage"`
	ValidFrom          string                `json:"valid_from"`
	ValidUntil         string                `json:"valid_until"`
	Items              []CampaignItemRequest `json:"items"`
}

func CreateCampaignMaster(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CampaignMasterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		session := middlewares.GetSessionFromContext(r.Context())
		if session == nil {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.FormatMissingFieldError("name"))
			return
		}
		if len(req.Items) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, constants.FormatMissingFieldError("items"))
			return
		}
		discount := decimal.Zero
		if req.DiscountPercentage != "" {
			var err error
			discount, err = decimal.NewFromString(req.DiscountPercentage)
			if err != nil || discount.IsNegative() || discount.GreaterThan(decimal.NewFromInt(100)) {
				api.RespondWithError(w, http.StatusBadRequest, constants.FormatFieldError("discount_percentage", "must be between 0 and 100"))
				return
			}
		}
		for i, it := range req.Items {
			if it.ProductID == "" {
				api.RespondWithError(w, http.StatusBadRequest, constants.FormatRowError(i+1, "product_id is required"))
				return
			}
			if it.Quantity <= 0 {
				api.RespondWithError(w, http.StatusBadRequest, constants.FormatRowError(i+1, "quantity must be greater than zero"))
				return
			}
			if it.ExcessPercentage != "" {
				e, err := decimal.NewFromString(it.ExcessPercentage)
				if err != nil || e.IsNegative() {
					api.RespondWithError(w, http.StatusBadRequest, constants.FormatRowError(i+1, "excess_percentage cannot be negative"))
					return
				}
			}
			if it.UnitPrice != "" {
				p, err := decimal.NewFromString(it.UnitPrice)
				if err != nil || p.IsNegative() {
					api.RespondWithError(w, http.StatusBadRequest, constants.FormatRowError(i+1, "unit_price must be a non-negative number"))
					return
				}
			}
		}

		ctx := r.Context()
		tx, txErr := pgxPool.Begin(ctx)
		if txErr != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrTransactionFailed)
			return
		}
		defer tx.Rollback(ctx)

		var campaignID string
		err := tx.QueryRow(ctx,
			`INSERT INTO campaigns (name, description, discount_percentage, valid_from, valid_until, status, created_by, created_at)
			 VALUES ($1, $2, $3, NULLIF($4, '')::date, NULLIF($5, '')::date, 'active', $6, NOW()) RETURNING id`,
			strings.TrimSpace(req.Name), req.Description, discount, req.ValidFrom, req.ValidUntil, session.Name,
		).Scan(&campaignID)
		if err != nil {
			friendlyMsg, statusCode := getUserFriendlyMasterError(err, "Failed to create campaign")
			api.RespondWithError(w, statusCode, friendlyMsg)
			return
		}
		for _, it := range req.Items {
			var unitPrice interface{}
			if it.UnitPrice != "" {
				unitPrice = it.UnitPrice
			}
			excess := it.ExcessPercentage
			if excess == "" {
				excess = "0"
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO campaign_items (campaign_id, product_id, quantity, unit_price, excess_percentage)
				 VALUES ($1, $2, $3, $4, $5)`,
				campaignID, it.ProductID, it.Quantity, unitPrice, excess,
			)
			if err != nil {
				friendlyMsg, statusCode := getUserFriendlyMasterError(err, "Failed to create campaign item")
				api.RespondWithError(w, statusCode, friendlyMsg)
				return
			}
		}
		if err := tx.Commit(ctx); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrTransactionFailed)
			return
		}
		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			constants.ValueSuccess: true,
			"campaign_id":          campaignID,
		})
	}
}

func GetAllCampaigns(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := `SELECT id, name, description, discount_percentage, valid_from, valid_until, status, created_at FROM campaigns`
		var args []interface{}
		if status := r.URL.Query().Get("status"); status != "" {
			query += " WHERE status = $1"
			args = append(args, status)
		}
		query += " ORDER BY created_at DESC"

		rows, err := pgxPool.Query(ctx, query, args...)
		if err != nil {
			friendlyMsg, statusCode := getUserFriendlyMasterError(err, "Failed to fetch campaigns")
			api.RespondWithError(w, statusCode, friendlyMsg)
			return
		}
		defer rows.Close()
		campaigns := []map[string]interface{}{}
		for rows.Next() {
			var id, name, status string
			var description *string
			var discount decimal.Decimal
			var validFrom, validUntil, createdAt interface{}
			if err := rows.Scan(&id, &name, &description, &discount, &validFrom, &validUntil, &status, &createdAt); err != nil {
				continue
			}
			row := map[string]interface{}{
				"id":                  id,
				"name":                name,
				"discount_percentage": discount.String(),
				"valid_from":          validFrom,
				"valid_until":         validUntil,
				"status":              status,
				"created_at":          createdAt,
			}
			if description != nil {
				row["description"] = *description
			}
			campaigns = append(campaigns, row)
		}
		rows.Close()

		// attach items per campaign
		for _, c := range campaigns {
			itemRows, err := pgxPool.Query(ctx,
				`SELECT ci.id, ci.product_id, p.name, ci.quantity, ci.unit_price, p.price, ci.excess_percentage
				 FROM campaign_items ci JOIN products p ON p.id = ci.product_id
				 WHERE ci.campaign_id = $1 ORDER BY ci.id`,
				c["id"],
			)
			if err != nil {
				continue
			}
			items := []map[string]interface{}{}
			for itemRows.Next() {
				var itemID, productID, productName string
				var quantity int64
				var unitPrice *decimal.Decimal
				var productPrice, excess decimal.Decimal
				if err := itemRows.Scan(&itemID, &productID, &productName, &quantity, &unitPrice, &productPrice, &excess); err != nil {
					continue
				}
				effective := productPrice
				if unitPrice != nil {
					effective = *unitPrice
				}
				items = append(items, map[string]interface{}{
					"id":                itemID,
					"product_id":        productID,
					"product_name":      productName,
					"quantity":          quantity,
					"unit_price":        effective.String(),
					"excess_percentage": excess.String(),
				})
			}
			itemRows.Close()
			c["items"] = items
		}
		api.RespondWithPayload(w, true, "", campaigns)
	}
}

func UpdateCampaignStatus(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID     string `json:"user_id"`
			CampaignID string `json:"campaign_id"`
			Status     string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CampaignID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if req.Status != "active" && req.Status != "inactive" {
			api.RespondWithError(w, http.StatusBadRequest, constants.FormatFieldError("status", "must be active or inactive"))
			return
		}
		tag, err := pgxPool.Exec(r.Context(),
			`UPDATE campaigns SET status = $2 WHERE id = $1`, req.CampaignID, req.Status)
		if err != nil {
			friendlyMsg, statusCode := getUserFriendlyMasterError(err, "Failed to update campaign")
			api.RespondWithError(w, statusCode, friendlyMsg)
			return
		}
		if tag.RowsAffected() == 0 {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrCampaignNotFound)
			return
		}
		api.RespondWithResult(w, true, "")
	}
}
