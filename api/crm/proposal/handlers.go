package proposal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"MedFieldCRM/api"
	"MedFieldCRM/api/constants"
	"MedFieldCRM/api/crm/rates"
	"MedFieldCRM/api/crm/scope"
	"MedFieldCRM/api/utils"
	"MedFieldCRM/internal/notification"

	"github.com/shopspring/decimal"
)

var defaultRates rates.RateProvider = rates.NewStaticProvider()

type itemRequest struct {
	ProductID        string  `json:"product_id"`
	ProductName      string  `json:"product_name"`
	Quantity         float64 `json:"quantity"`
	UnitPrice        float64 `json:"unit_price"`
	ProductCurrency  string  `json:"product_currency"`
	ExcessPercentage float64 `json:"excess_percentage"`
}

type proposalRequest struct {
	UserID                string        `json:"user_id"`
	ClinicID              string        `json:"clinic_id"`
	Currency              string        `json:"currency"`
	DiscountPercentage    float64       `json:"discount_percentage"`
	DownPaymentPercentage float64       `json:"down_payment_percentage"`
	InstallmentCount      int           `json:"installment_count"`
	Notes                 string        `json:"notes"`
	SubmissionToken       string        `json:"submission_token"`
	CampaignID            string        `json:"campaign_id"`
	Items                 []itemRequest `json:"items"`
}

// buildCalculator assembles a Calculator from the request. When a campaign
// is selected its items replace whatever was entered manually and its
// discount overrides the manual one.
func buildCalculator(r *http.Request, db *sql.DB, req proposalRequest) (*Calculator, error) {
	cur, ok := rates.Parse(req.Currency)
	if !ok {
		return nil, &ValidationError{Field: "currency", Reason: constants.ErrInvalidCurrency}
	}
	calc := NewCalculator(defaultRates, cur)

	if req.CampaignID != "" {
		src := &SQLCampaignSource{DB: db}
		items, discount, err := ExpandCampaign(r.Context(), src, defaultRates, req.CampaignID, cur)
		if err != nil {
			return nil, err
		}
		calc.ApplyCampaign(req.CampaignID, items, discount)
	} else {
		for i, ir := range req.Items {
			cur, ok := rates.Parse(ir.ProductCurrency)
			if !ok {
				return nil, &ValidationError{Field: fmt.Sprintf("items[%d].product_currency", i), Reason: constants.ErrInvalidCurrency}
			}
			it, err := NewItem(
				ir.ProductID, ir.ProductName,
				decimal.NewFromFloat(ir.Quantity), decimal.NewFromFloat(ir.UnitPrice),
				cur, decimal.NewFromFloat(ir.ExcessPercentage),
			)
			if err != nil {
				return nil, err
			}
			calc.AddItem(it)
		}
		if err := calc.SetGeneralDiscount(decimal.NewFromFloat(req.DiscountPercentage)); err != nil {
			return nil, err
		}
	}
	if err := calc.SetDownPayment(decimal.NewFromFloat(req.DownPaymentPercentage)); err != nil {
		return nil, err
	}
	if err := calc.SetInstallmentCount(req.InstallmentCount); err != nil {
		return nil, err
	}
	return calc, nil
}

// Handler: submit a proposal (two-phase write, idempotent by token)
func SubmitProposal(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req proposalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
			return
		}

		calc, err := buildCalculator(r, db, req)
		if err != nil {
			respondProposalError(w, err)
			return
		}

		orch := NewOrchestrator(&SQLStore{DB: db}, defaultRates)
		result, err := orch.Submit(r.Context(), Header{
			ClinicID:        req.ClinicID,
			UserID:          req.UserID,
			Currency:        calc.Currency(),
			Notes:           req.Notes,
			SubmissionToken: req.SubmissionToken,
		}, calc)
		if err != nil {
			respondProposalError(w, err)
			return
		}

		resp := map[string]interface{}{
			"success":     true,
			"proposal_id": result.ProposalID,
			"duplicate":   result.Duplicate,
			"totals":      result.Totals,
			"items":       calc.Items(),
		}
		if result.Warning != nil {
			resp["warning"] = result.Warning.Error()
			notification.Push(req.UserID, "warning", result.Warning.Error())
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// Handler: recompute totals without writing anything
func PreviewProposal(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req proposalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
			return
		}
		calc, err := buildCalculator(r, db, req)
		if err != nil {
			respondProposalError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"totals":  calc.Totals(),
			"items":   calc.Items(),
		})
	}
}

// Handler: expand a campaign into proposal items for a given currency
func ExpandCampaignHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID     string `json:"user_id"`
			CampaignID string `json:"campaign_id"`
			Currency   string `json:"currency"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CampaignID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
			return
		}
		cur, ok := rates.Parse(req.Currency)
		if !ok {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidCurrency)
			return
		}
		src := &SQLCampaignSource{DB: db}
		items, discount, err := ExpandCampaign(r.Context(), src, defaultRates, req.CampaignID, cur)
		if err != nil {
			respondProposalError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":             true,
			"items":               items,
			"discount_percentage": discount,
		})
	}
}

// Handler: list proposals visible to the caller
func GetProposals(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := api.GetScopeUserFromCtx(r.Context())
		if !ok {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		builder := &scope.Builder{Clinics: &scope.SQLClinicResolver{DB: db}, Policy: api.MissingRegionPolicyFromEnv()}
		sc, err := builder.For(r.Context(), u, scope.ResourceProposals)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed)
			return
		}
		if sc.DenyAll {
			api.RespondWithPayload(w, true, "", []map[string]interface{}{})
			return
		}

		pagination, err := utils.ExtractPagination(r)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		where := ""
		var params []interface{}
		if clause, args := sc.WhereClause(1); clause != "" {
			where = " WHERE " + clause
			params = append(params, args...)
		}
		if status := r.URL.Query().Get("status"); status != "" {
			if where == "" {
				where = " WHERE status = $1"
			} else {
				where += fmt.Sprintf(" AND status = $%d", len(params)+1)
			}
			params = append(params, status)
		}

		total, err := utils.CountTotal(db, "SELECT COUNT(*) FROM proposals"+where, params...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed)
			return
		}
		pagination.SetPaginationStats(total)

		query := `SELECT id, clinic_id, user_id, currency, discount_percentage, total_amount,
			installment_count, installment_amount, down_payment_percentage, down_payment_amount,
			status, notes, created_at FROM proposals` + where +
			fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(params)+1, len(params)+2)
		params = append(params, pagination.Limit, pagination.Offset)

		rows, err := db.Query(query, params...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()
		proposals := scanRows(rows)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"rows":       proposals,
			"pagination": pagination,
		})
	}
}

// Handler: get one proposal with its items, access checked by scope
func GetProposalById(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID     string `json:"user_id"`
			ProposalID string `json:"proposal_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProposalID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
			return
		}
		u, ok := api.GetScopeUserFromCtx(r.Context())
		if !ok {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		builder := &scope.Builder{Clinics: &scope.SQLClinicResolver{DB: db}, Policy: api.MissingRegionPolicyFromEnv()}
		sc, err := builder.For(r.Context(), u, scope.ResourceProposals)
		if err != nil || sc.DenyAll {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrProposalNotFound)
			return
		}

		query := `SELECT id, clinic_id, user_id, currency, discount_percentage, total_amount,
			installment_count, installment_amount, down_payment_percentage, down_payment_amount,
			status, notes, created_at FROM proposals WHERE id = $1`
		params := []interface{}{req.ProposalID}
		if clause, args := sc.WhereClause(2); clause != "" {
			query += " AND " + clause
			params = append(params, args...)
		}

		rows, err := db.Query(query, params...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()
		headers := scanRows(rows)
		if len(headers) == 0 {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrProposalNotFound)
			return
		}

		itemRows, err := db.Query(
			`SELECT product_id, product_name, quantity, unit_price, product_currency,
				excess_percentage, total, original_total
			 FROM proposal_items WHERE proposal_id = $1 ORDER BY id`, req.ProposalID)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer itemRows.Close()
		items := scanRows(itemRows)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":  true,
			"proposal": headers[0],
			"items":    items,
		})
	}
}

var validStatuses = map[string]bool{
	constants.ProposalPending:          true,
	constants.ProposalApproved:         true,
	constants.ProposalRejected:         true,
	constants.ProposalExpired:          true,
	constants.ProposalContractReceived: true,
	constants.ProposalInTransfer:       true,
	constants.ProposalDelivered:        true,
}

// Handler: change a proposal's status (admin/manager only). The frozen
// total_amount is deliberately not recomputed.
func UpdateProposalStatus(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID     string `json:"user_id"`
			ProposalID string `json:"proposal_id"`
			Status     string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProposalID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
			return
		}
		u, ok := api.GetScopeUserFromCtx(r.Context())
		if !ok || !api.IsManagerRole(u) {
			api.RespondWithError(w, http.StatusForbidden, constants.ErrUnauthorized)
			return
		}
		if !validStatuses[req.Status] {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrProposalStatus)
			return
		}

		var ownerID string
		err := db.QueryRow(
			`UPDATE proposals SET status = $1 WHERE id = $2 RETURNING user_id`,
			req.Status, req.ProposalID,
		).Scan(&ownerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				api.RespondWithError(w, http.StatusNotFound, constants.ErrProposalNotFound)
				return
			}
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		msg := fmt.Sprintf("Proposal %s is now %s", req.ProposalID, req.Status)
		if by := api.RequestedByFromCtx(r.Context(), req.UserID); by != "" {
			msg += " (by " + by + ")"
		}
		notification.Push(ownerID, "info", msg)
		api.RespondWithResult(w, true, "")
	}
}

// Handler: in-app notifications for the caller
func GetNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := api.GetUserIDFromCtx(r.Context())
		if userID == "" {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		api.RespondWithPayload(w, true, "", notification.For(userID))
	}
}

// Handler: clear the caller's notifications once the client has shown them
func ClearNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := api.GetUserIDFromCtx(r.Context())
		if userID == "" {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		notification.Clear(userID)
		api.RespondWithResult(w, true, "")
	}
}

// respondProposalError maps the error taxonomy onto HTTP responses.
func respondProposalError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	var fe *FetchError
	var we *WriteError
	switch {
	case errors.As(err, &ve):
		api.RespondWithError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &fe):
		api.RespondWithError(w, http.StatusBadGateway, fe.Error())
	case errors.As(err, &we):
		api.RespondWithError(w, http.StatusInternalServerError, we.Error())
	default:
		api.RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

// scanRows turns a result set into generic row maps (column name -> value).
func scanRows(rows *sql.Rows) []map[string]interface{} {
	cols, _ := rows.Columns()
	out := []map[string]interface{}{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		valPtrs := make([]interface{}, len(cols))
		for i := range vals {
			valPtrs[i] = &vals[i]
		}
		rows.Scan(valPtrs...)
		rowMap := map[string]interface{}{}
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				rowMap[col] = string(b)
			} else {
				rowMap[col] = vals[i]
			}
		}
		out = append(out, rowMap)
	}
	return out
}
