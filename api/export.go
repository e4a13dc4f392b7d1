package api

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/warp/license-registry/license"
)

// utf8BOM lets spreadsheet tools detect UTF-8 for Arabic text.
const utf8BOM = "\ufeff"

var csvHeaders = map[string]map[string]string{
	"ar": {
		"name":        "الاسم",
		"rank":        "الرتبة",
		"file_number": "رقم الملف",
		"category":    "الفئة",
		"type":        "نوع الإجازة",
		"date":        "التاريخ",
		"hours":       "الساعات",
		"full_days":   "أيام كاملة",
		"half_days":   "أنصاف أيام",
		"total_hours": "مجموع الساعات",
	},
	"en": {
		"name":        "Name",
		"rank":        "Rank",
		"file_number": "File number",
		"category":    "Category",
		"type":        "Leave type",
		"date":        "Date",
		"hours":       "Hours",
		"full_days":   "Full days",
		"half_days":   "Half days",
		"total_hours": "Total hours",
	},
}

func headers(locale string, keys ...string) []string {
	labels, ok := csvHeaders[locale]
	if !ok {
		labels = csvHeaders["ar"]
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = labels[k]
	}
	return out
}

// WriteLicensesCSV emits one row per record in the given order.
// Records must be joined with their employees.
func WriteLicensesCSV(w io.Writer, records []license.LeaveRecord, locale string) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(headers(locale, "name", "rank", "file_number", "category", "type", "date", "hours")); err != nil {
		return err
	}
	for _, r := range records {
		var e license.Employee
		if r.Employee != nil {
			e = *r.Employee
		}
		hours := ""
		if r.Hours != nil {
			hours = r.Hours.String()
		}
		if err := writer.Write([]string{
			e.FullName,
			e.Rank,
			e.FileNumber,
			string(e.Category),
			string(r.Type),
			r.LicenseDate.String(),
			hours,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteGroupedCSV emits the per-employee report.
func WriteGroupedCSV(w io.Writer, rows []license.GroupedRow, locale string) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(headers(locale, "name", "rank", "file_number", "category", "full_days", "half_days", "total_hours")); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.Employee.FullName,
			row.Employee.Rank,
			row.Employee.FileNumber,
			string(row.Employee.Category),
			strconv.Itoa(row.FullDays),
			strconv.Itoa(row.HalfDays),
			row.TotalHours.String(),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
}
