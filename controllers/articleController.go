package controllers

import (
	"errors"

	"salestracker-backend/database"
	"salestracker-backend/middlewares"
	"salestracker-backend/models"
	"salestracker-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ArticleInput carries money as a string so the amount is parsed with decimal
// arithmetic instead of going through a float.
type ArticleInput struct {
	Code              string `json:"code" validate:"required"`
	Category          uint   `json:"category" validate:"required"`
	Name              string `json:"name" validate:"required"`
	ManufacturingCost string `json:"manufacturing_cost" validate:"required"`
}

func CreateArticle(c *fiber.Ctx) error {
	var input ArticleInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizeDTO(&input)

	cost, err := utils.ParseAmount(input.ManufacturingCost)
	if err != nil || cost.IsNegative() {
		return c.Status(400).JSON(fiber.Map{
			"status":  "fail",
			"message": fiber.Map{"manufacturing_cost": "invalid decimal amount"},
		})
	}

	db, err := database.GetRequestDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "database unavailable")
	}

	var category models.ArticleCategory
	if err := db.First(&category, input.Category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(400).JSON(fiber.Map{
				"status":  "fail",
				"message": fiber.Map{"category": "unknown category"},
			})
		}
		return err
	}

	var codeExist models.Article
	db.Where("code = ?", input.Code).First(&codeExist)
	if codeExist.Id != "" {
		return c.Status(400).JSON(fiber.Map{
			"status":  "fail",
			"message": fiber.Map{"code": "article code already exists"},
		})
	}

	article := models.Article{
		Code:              input.Code,
		CategoryId:        category.Id,
		Name:              input.Name,
		ManufacturingCost: utils.NewAmount(cost),
	}
	if err := db.Create(&article).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{
			"status":  "fail",
			"message": fiber.Map{"code": "could not create article"},
		})
	}
	article.Category = category

	return c.Status(201).JSON(article)
}

func GetArticles(c *fiber.Ctx) error {
	db, err := database.GetRequestDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "database unavailable")
	}

	var articles []models.Article
	if err := db.Preload("Category").Order("code").Find(&articles).Error; err != nil {
		return err
	}
	return c.JSON(articles)
}
