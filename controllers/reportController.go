package controllers

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"salestracker-backend/database"
	"salestracker-backend/models"
	"salestracker-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ArticleTotals is one aggregated row of the sales-by-article report.
type ArticleTotals struct {
	Category       string       `json:"category"`
	LastSale       string       `json:"last_sale"`
	NetMargin      utils.Amount `json:"net_margin"`
	TotalSellPrice utils.Amount `json:"total_sell_price"`
}

type ReportEntry struct {
	ArticleName string
	ArticleCode string
	ArticleTotals
}

// SalesByArticleReport serializes as a JSON object keyed by article name,
// with insertion order preserved (total sell price descending). Articles
// sharing a name collide on the key; callers are expected to keep names
// unique.
type SalesByArticleReport struct {
	Entries []ReportEntry
}

func (r SalesByArticleReport) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(e.ArticleName)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		body, err := json.Marshal(e.ArticleTotals)
		if err != nil {
			return nil, err
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type articleAccum struct {
	name     string
	code     string
	category string
	total    decimal.Decimal
	margin   decimal.Decimal
	lastSale time.Time
}

// BuildSalesByArticle groups sales by article and computes, per group,
// total sell price (sum of quantity x unit price) and net margin (sum of
// (unit price - manufacturing cost) x quantity), both rounded to 2 decimal
// places after summation. Sales must have Article and Article.Category
// populated. Articles with no sale rows never appear.
func BuildSalesByArticle(sales []models.Sale) SalesByArticleReport {
	groups := make(map[string]*articleAccum)
	for i := range sales {
		sale := &sales[i]
		acc, ok := groups[sale.ArticleId]
		if !ok {
			acc = &articleAccum{
				name:     sale.Article.Name,
				code:     sale.Article.Code,
				category: sale.Article.Category.DisplayName,
				total:    decimal.Zero,
				margin:   decimal.Zero,
			}
			groups[sale.ArticleId] = acc
		}
		qty := decimal.NewFromInt(int64(sale.Quantity))
		acc.total = acc.total.Add(sale.UnitSellingPrice.Mul(qty))
		acc.margin = acc.margin.Add(sale.UnitSellingPrice.Sub(sale.Article.ManufacturingCost.Decimal).Mul(qty))
		if sale.Date.After(acc.lastSale) {
			acc.lastSale = sale.Date
		}
	}

	entries := make([]ReportEntry, 0, len(groups))
	for _, acc := range groups {
		entries = append(entries, ReportEntry{
			ArticleName: acc.name,
			ArticleCode: acc.code,
			ArticleTotals: ArticleTotals{
				Category:       acc.category,
				LastSale:       acc.lastSale.Format("2006-01-02"),
				NetMargin:      utils.NewAmount(acc.margin),
				TotalSellPrice: utils.NewAmount(acc.total),
			},
		})
	}

	// Revenue descending; equal totals break ties on article code so the
	// order is deterministic.
	sort.Slice(entries, func(i, j int) bool {
		cmp := entries[i].TotalSellPrice.Cmp(entries[j].TotalSellPrice.Decimal)
		if cmp != 0 {
			return cmp > 0
		}
		return entries[i].ArticleCode < entries[j].ArticleCode
	})

	return SalesByArticleReport{Entries: entries}
}

// SalesByArticle recomputes the report from the ledger on every request;
// there is no caching layer.
func SalesByArticle(c *fiber.Ctx) error {
	db, err := database.GetRequestDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "database unavailable")
	}

	var sales []models.Sale
	if err := db.Preload("Article.Category").Preload("Article").Find(&sales).Error; err != nil {
		return err
	}

	return c.JSON(BuildSalesByArticle(sales))
}
