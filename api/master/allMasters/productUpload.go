package allMaster

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"MedFieldCRM/api"
	"MedFieldCRM/api/constants"
	middlewares "MedFieldCRM/api/middlewares"
	"MedFieldCRM/internal/checksum"

	"github.com/extrame/xls"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var uploadRegistry = checksum.NewRegistry()

// parseProductSheet reads a product sheet into rows of cells. Supports
// .xlsx, .xls and .csv.
func parseProductSheet(data []byte, filename string) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		return r.ReadAll()
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows := workbook.ReadAllCells(100000)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	case ".xlsx":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		sheet := f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unsupported file type %s", ext)
	}
}

var productHeaderAliases = map[string]string{
	"sku":          "sku",
	"product code": "sku",
	"name":         "name",
	"product name": "name",
	"category":     "category",
	"price":        "price",
	"unit price":   "price",
	"currency":     "currency",
}

func mapProductHeaders(headerRow []string) (map[string]int, error) {
	cols := map[string]int{}
	for i, h := range headerRow {
		key := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := productHeaderAliases[key]; ok {
			cols[canonical] = i
		}
	}
	for _, required := range []string{"sku", "name", "price"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	return cols, nil
}

func cellAt(row []string, idx int, ok bool) string {
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Handler: bulk product upload from a spreadsheet. Existing SKUs are
// updated in place, new SKUs are inserted. Re-uploading the exact same
// file is rejected by content digest.
func UploadProductSheet(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session := middlewares.GetSessionFromContext(ctx)
		if session == nil {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrFileUploadFailed)
			return
		}
		file, fileHeader, err := r.FormFile("file")
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrFileUploadFailed)
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrFileUploadFailed)
			return
		}
		if len(data) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrEmptyFile)
			return
		}

		digest := checksum.Digest(data)
		if existing, dup := uploadRegistry.Remember(digest, fileHeader.Filename); dup {
			api.RespondWithError(w, http.StatusConflict, fmt.Sprintf(constants.ErrDuplicateUpload, existing))
			return
		}

		records, err := parseProductSheet(data, fileHeader.Filename)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidFileFormat)
			return
		}
		if len(records) < 2 {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrEmptyFile)
			return
		}
		cols, err := mapProductHeaders(records[0])
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidHeaders)
			return
		}

		tx, txErr := pgxPool.Begin(ctx)
		if txErr != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrTransactionFailed)
			return
		}
		defer tx.Rollback(ctx)

		inserted := 0
		var rowErrors []string
		for i, row := range records[1:] {
			rowNum := i + 2
			skuIdx, skuOk := cols["sku"]
			nameIdx, nameOk := cols["name"]
			priceIdx, priceOk := cols["price"]
			catIdx, catOk := cols["category"]
			curIdx, curOk := cols["currency"]

			sku := cellAt(row, skuIdx, skuOk)
			name := cellAt(row, nameIdx, nameOk)
			priceStr := cellAt(row, priceIdx, priceOk)
			if sku == "" && name == "" && priceStr == "" {
				continue // blank row
			}
			if sku == "" {
				rowErrors = append(rowErrors, constants.FormatRowError(rowNum, "sku is missing"))
				continue
			}
			if name == "" {
				rowErrors = append(rowErrors, constants.FormatRowError(rowNum, "name is missing"))
				continue
			}
			price, perr := decimal.NewFromString(strings.ReplaceAll(priceStr, ",", ""))
			if perr != nil || price.IsNegative() {
				rowErrors = append(rowErrors, constants.FormatRowError(rowNum, "price is not a valid non-negative number"))
				continue
			}
			currency, curErr := normalizeCurrency(cellAt(row, curIdx, curOk))
			if curErr != nil {
				rowErrors = append(rowErrors, constants.FormatRowError(rowNum, curErr.Error()))
				continue
			}
			category := cellAt(row, catIdx, catOk)

			_, err := tx.Exec(ctx,
				`INSERT INTO products (sku, name, category, price, currency, status, created_by, created_at)
				 VALUES ($1, $2, $3, $4, $5, 'active', $6, NOW())
				 ON CONFLICT (sku) DO UPDATE SET
				        name = EXCLUDED.name,
				        category = EXCLUDED.category,
				        price = EXCLUDED.price,
				        currency = EXCLUDED.currency`,
				sku, name, category, price, currency, session.Name,
			)
			if err != nil {
				friendlyMsg, _ := getUserFriendlyMasterError(err, "Failed to save product")
				rowErrors = append(rowErrors, constants.FormatRowError(rowNum, friendlyMsg))
				continue
			}
			inserted++
		}
		if err := tx.Commit(ctx); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrTransactionFailed)
			return
		}

		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			constants.ValueSuccess: true,
			"message":              fmt.Sprintf(constants.SuccessUploaded, inserted),
			"processed":            inserted,
			"row_errors":           rowErrors,
		})
	}
}
