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

type ProductMasterRequest struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func CreateProductMaster(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID   string                 `json:"user_id"`
			Products []ProductMasterRequest `json:"products"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		session := middlewares.GetSessionFromContext(r.Context())
		if session == nil {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		var results []map[string]interface{}
		for _, p := range req.Products {
			if strings.TrimSpace(p.SKU) == "" {
				results = append(results, map[string]interface{}{
					constants.ValueSuccess: false,
					constants.ValueError:   constants.FormatMissingFieldError("sku"),
				})
				continue
			}
			if strings.TrimSpace(p.Name) == "" {
				results = append(results, map[string]interface{}{
					constants.ValueSuccess: false,
					constants.ValueError:   constants.FormatMissingFieldError("name"),
					"sku":                  p.SKU,
				})
				continue
			}
			price, err := decimal.NewFromString(p.Price)
			if err != nil || price.IsNegative() {
				results = append(results, map[string]interface{}{
					constants.ValueSuccess: false,
					constants.ValueError:   constants.FormatFieldError("price", "must be a non-negative number"),
					"sku":                  p.SKU,
				})
				continue
			}
			currency, err := normalizeCurrency(p.Currency)
			if err != nil {
				results = append(results, map[string]interface{}{
					constants.ValueSuccess: false,
					constants.ValueError:   err.Error(),
					"sku":                  p.SKU,
				})
				continue
			}
			status := p.Status
			if status == "" {
				status = "active"
			}
			var productID string
			err = pgxPool.QueryRow(r.Context(),
				`INSERT INTO products (sku, name, category, price, currency, status, created_by, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id`,
				strings.TrimSpace(p.SKU), strings.TrimSpace(p.Name), p.Category, price, currency, status, session.Name,
			).Scan(&productID)
			if err != nil {
				friendlyMsg, _ := getUserFriendlyMasterError(err, "Failed to create product")
				results = append(results, map[string]interface{}{
					constants.ValueSuccess: false,
					constants.ValueError:   friendlyMsg,
					"sku":                  p.SKU,
				})
				continue
			}
			results = append(results, map[string]interface{}{
				constants.ValueSuccess: true,
				"product_id":           productID,
				"sku":                  p.SKU,
			})
		}
		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{constants.ValueSuccess: true, "results": results})
	}
}

func GetAllProducts(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `SELECT id, sku, name, category, price, currency, status, created_at FROM products`
		var args []interface{}
		if status := r.URL.Query().Get("status"); status != "" {
			query += " WHERE status = $1"
			args = append(args, status)
		}
		query += " ORDER BY name"

		rows, err := pgxPool.Query(r.Context(), query, args...)
		if err != nil {
			friendlyMsg, statusCode := getUserFriendlyMasterError(err, "Failed to fetch products")
			api.RespondWithError(w, statusCode, friendlyMsg)
			return
		}
		defer rows.Close()
		products := []map[string]interface{}{}
		for rows.Next() {
			var id, sku, name, currency, status string
			var category *string
			var price decimal.Decimal
			var createdAt interface{}
			if err := rows.Scan(&id, &sku, &name, &category, &price, &currency, &status, &createdAt); err != nil {
				continue
			}
			row := map[string]interface{}{
				"id":         id,
				"sku":        sku,
				"name":       name,
				"price":      price.String(),
				"currency":   currency,
				"status":     status,
				"created_at": createdAt,
			}
			if category != nil {
				row["category"] = *category
			}
			products = append(products, row)
		}
		api.RespondWithPayload(w, true, "", products)
	}
}

func UpdateProductMaster(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID    string `json:"user_id"`
			ProductID string `json:"product_id"`
			Name      string `json:"name"`
			Category  string `json:"category"`
			Price     string `json:"price"`
			Currency  string `json:"currency"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if req.Price != "" {
			price, err := decimal.NewFromString(req.Price)
			if err != nil || price.IsNegative() {
				api.RespondWithError(w, http.StatusBadRequest, constants.FormatFieldError("price", "must be a non-negative number"))
				return
			}
		}
		currency := ""
		if req.Currency != "" {
			var err error
			currency, err = normalizeCurrency(req.Currency)
			if err != nil {
				api.RespondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		tag, err := pgxPool.Exec(r.Context(),
			`UPDATE products SET
			        name = COALESCE(NULLIF($2, ''), name),
			        category = COALESCE(NULLIF($3, ''), category),
			        price = COALESCE(NULLIF($4, '')::numeric, price),
			        currency = COALESCE(NULLIF($5, ''), currency)
			 WHERE id = $1`,
			req.ProductID, strings.TrimSpace(req.Name), req.Category, req.Price, currency,
		)
		if err != nil {
			friendlyMsg, statusCode := getUserFriendlyMasterError(err, "Failed to update product")
			api.RespondWithError(w, statusCode, friendlyMsg)
			return
		}
		if tag.RowsAffected() == 0 {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrProductNotFound)
			return
		}
		api.RespondWithResult(w, true, "")
	}
}

// Products referenced by proposals and campaigns are only ever deactivated.
func DeactivateProductMaster(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID    string `json:"user_id"`
			ProductID string `json:"product_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		tag, err := pgxPool.Exec(r.Context(),
			`UPDATE products SET status = 'inactive' WHERE id = $1`, req.ProductID)
		if err != nil {
			friendlyMsg, statusCode := getUserFriendlyMasterError(err, "Failed to deactivate product")
			api.RespondWithError(w, statusCode, friendlyMsg)
			return
		}
		if tag.RowsAffected() == 0 {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrProductNotFound)
			return
		}
		api.RespondWithResult(w, true, "")
	}
}
