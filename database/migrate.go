package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate applies the idempotent raw-SQL migrations AutoMigrate cannot express:
// - Money column types (NUMERIC(12,2))
// - Indexes (sales by date, idempotency keys)
// - Basic CHECK constraints (non-negative quantity/prices)
// Postgres-only; test databases stop at AutoMigrate.
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE articles ALTER COLUMN manufacturing_cost TYPE numeric(12,2)`,
			`ALTER TABLE sales    ALTER COLUMN unit_selling_price TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_sales_article_date ON sales (article_id, date)`,
			`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales (date)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			// Sale quantity must be non-negative
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'sales'::regclass
					  AND conname  = 'chk_sales_quantity_nonneg'
				) THEN
					ALTER TABLE sales
					ADD CONSTRAINT chk_sales_quantity_nonneg
					CHECK (quantity >= 0);
				END IF;
			END $$;`,
			// Non-negative unit selling price
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'sales'::regclass
					  AND conname  = 'chk_sales_unit_selling_price_nonneg'
				) THEN
					ALTER TABLE sales
					ADD CONSTRAINT chk_sales_unit_selling_price_nonneg
					CHECK (unit_selling_price >= 0);
				END IF;
			END $$;`,
			// Non-negative manufacturing cost
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'articles'::regclass
					  AND conname  = 'chk_articles_manufacturing_cost_nonneg'
				) THEN
					ALTER TABLE articles
					ADD CONSTRAINT chk_articles_manufacturing_cost_nonneg
					CHECK (manufacturing_cost >= 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
