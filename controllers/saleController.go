package controllers

import (
	"errors"
	"time"

	"salestracker-backend/database"
	"salestracker-backend/middlewares"
	"salestracker-backend/models"
	"salestracker-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SaleInput deliberately has no date/author fields: both are stamped
// server-side so clients cannot backdate or impersonate.
type SaleInput struct {
	Article          string `json:"article" validate:"required"`
	Quantity         *int   `json:"quantity" validate:"required,gte=0"`
	UnitSellingPrice string `json:"unit_selling_price" validate:"required"`
}

// SalePatchInput is the partial-update shape; nil fields are left untouched.
type SalePatchInput struct {
	Article          *string `json:"article"`
	Quantity         *int    `json:"quantity" validate:"omitempty,gte=0"`
	UnitSellingPrice *string `json:"unit_selling_price"`
}

func requester(c *fiber.Ctx) string {
	userID, _ := c.Locals("userID").(string)
	return userID
}

func ListSales(c *fiber.Ctx) error {
	db, err := database.GetRequestDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "database unavailable")
	}

	sales := make([]models.Sale, 0)
	if err := db.Order("date desc").Find(&sales).Error; err != nil {
		return err
	}
	return c.JSON(sales)
}

func CreateSale(c *fiber.Ctx) error {
	var input SaleInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizeDTO(&input)

	price, err := utils.ParseAmount(input.UnitSellingPrice)
	if err != nil || price.IsNegative() {
		return c.Status(400).JSON(fiber.Map{
			"status":  "fail",
			"message": fiber.Map{"unit_selling_price": "invalid decimal amount"},
		})
	}

	db, err := database.GetRequestDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "database unavailable")
	}

	var article models.Article
	if err := db.Where("id = ?", input.Article).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(400).JSON(fiber.Map{
				"status":  "fail",
				"message": fiber.Map{"article": "unknown article"},
			})
		}
		return err
	}

	sale := models.Sale{
		ArticleId:        article.Id,
		Quantity:         *input.Quantity,
		UnitSellingPrice: utils.NewAmount(price),
		Date:             time.Now().UTC(),
		AuthorId:         requester(c),
	}
	if err := db.Create(&sale).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{
			"status":  "fail",
			"message": fiber.Map{"sale": "could not create sale"},
		})
	}

	return c.Status(201).JSON(fiber.Map{
		"status": "success",
		"sale":   sale,
	})
}

func UpdateSale(c *fiber.Ctx) error {
	db, err := database.GetRequestDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "database unavailable")
	}

	var sale models.Sale
	if err := db.Where("id = ?", c.Params("id")).First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"message": "sale not found"})
		}
		return err
	}

	if !sale.OwnedBy(requester(c)) {
		return c.Status(403).JSON(fiber.Map{"message": "only the original author may modify this sale"})
	}

	var input SalePatchInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&input)

	updates := utils.UpdatesFromPtrDTO(&input, map[string]string{"article": "article_id"})

	if input.Article != nil {
		var article models.Article
		if err := db.Where("id = ?", *input.Article).First(&article).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(400).JSON(fiber.Map{
					"status":  "fail",
					"message": fiber.Map{"article": "unknown article"},
				})
			}
			return err
		}
	}
	if input.UnitSellingPrice != nil {
		price, err := utils.ParseAmount(*input.UnitSellingPrice)
		if err != nil || price.IsNegative() {
			return c.Status(400).JSON(fiber.Map{
				"status":  "fail",
				"message": fiber.Map{"unit_selling_price": "invalid decimal amount"},
			})
		}
		updates["unit_selling_price"] = utils.NewAmount(price)
	}

	// Every update re-stamps date and author, regardless of which fields changed.
	updates["date"] = time.Now().UTC()
	updates["author_id"] = requester(c)

	if err := db.Model(&sale).Updates(updates).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{
			"status":  "fail",
			"message": fiber.Map{"sale": "could not update sale"},
		})
	}

	if err := db.Where("id = ?", sale.Id).First(&sale).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"sale":   sale,
	})
}

func DeleteSale(c *fiber.Ctx) error {
	db, err := database.GetRequestDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "database unavailable")
	}

	var sale models.Sale
	if err := db.Where("id = ?", c.Params("id")).First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"message": "sale not found"})
		}
		return err
	}

	if !sale.OwnedBy(requester(c)) {
		return c.Status(403).JSON(fiber.Map{"message": "only the original author may delete this sale"})
	}

	if err := db.Delete(&sale).Error; err != nil {
		return err
	}
	return c.SendStatus(204)
}
