package db

import "gorm.io/gorm"

// ForUpdate returns the row-lock suffix for raw SELECTs. SQLite serializes
// writers at the database level and rejects the clause, so it gets none.
func ForUpdate(tx *gorm.DB) string {
	if tx == nil || tx.Dialector == nil {
		return ""
	}
	if tx.Dialector.Name() == "sqlite" {
		return ""
	}
	return " FOR UPDATE"
}
