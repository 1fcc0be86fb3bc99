package controllers

import (
	"invoicing-backend/middlewares"
	"invoicing-backend/models"
	"invoicing-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ServiceInput struct {
	Name        string `json:"name" validate:"required,min=3,max=255"`
	Description string `json:"description"`
}

// CreateServices accepts a batch, matching how catalog items are entered.
func CreateServices(c *fiber.Ctx) error {
	var inputs []ServiceInput
	if err := c.BodyParser(&inputs); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	tx := middlewares.Tx(c)
	var created []models.Service

	for _, input := range inputs {
		if err := middlewares.ValidateStruct(input); err != nil {
			return err
		}
		utils.NormalizeDTO(&input)

		service := models.Service{
			Name:        input.Name,
			Description: input.Description,
		}
		if err := tx.Create(&service).Error; err != nil {
			c.Status(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"message": "Could not create service",
				"error":   err.Error(),
			})
		}
		created = append(created, service)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func GetServices(c *fiber.Ctx) error {
	var services []models.Service
	if err := middlewares.Tx(c).Order("name ASC").Find(&services).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"services": services,
		"message":  "success",
	})
}

func GetService(c *fiber.Ctx) error {
	var service models.Service
	if err := middlewares.Tx(c).First(&service, "id = ?", c.Params("id")).Error; err != nil {
		return err
	}
	return c.JSON(service)
}

type ServicePatch struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=255"`
	Description *string `json:"description"`
}

func UpdateService(c *fiber.Ctx) error {
	var patch ServicePatch
	if err := middlewares.BindAndValidate(c, &patch); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&patch)

	tx := middlewares.Tx(c)

	var service models.Service
	if err := tx.First(&service, "id = ?", c.Params("id")).Error; err != nil {
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&patch, nil)
	if len(updates) == 0 {
		return c.JSON(service)
	}
	if err := tx.Model(&service).Updates(updates).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not update service",
			"error":   err.Error(),
		})
	}
	return c.JSON(service)
}

func DeleteService(c *fiber.Ctx) error {
	tx := middlewares.Tx(c)

	var service models.Service
	if err := tx.First(&service, "id = ?", c.Params("id")).Error; err != nil {
		return err
	}
	if err := tx.Delete(&service).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "success"})
}
