package controllers

import (
	"salestracker-backend/database"
	"salestracker-backend/middlewares"
	"salestracker-backend/models"
	"salestracker-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CategoryInput struct {
	DisplayName string `json:"display_name" validate:"required"`
}

func CreateCategory(c *fiber.Ctx) error {
	var input CategoryInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizeDTO(&input)

	db, err := database.GetRequestDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "database unavailable")
	}

	category := models.ArticleCategory{
		DisplayName: input.DisplayName,
	}
	if err := db.Create(&category).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{
			"status":  "fail",
			"message": fiber.Map{"display_name": "could not create category (duplicate name?)"},
		})
	}

	return c.Status(201).JSON(category)
}
