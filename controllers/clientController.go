package controllers

import (
	"invoicing-backend/middlewares"
	"invoicing-backend/models"
	"invoicing-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ClientInput struct {
	Name    string `json:"name" validate:"required,min=3,max=100"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"omitempty,max=30"`
	Address string `json:"address" validate:"omitempty,max=255"`
	GST     string `json:"gst" validate:"omitempty,max=50"`
}

func CreateClient(c *fiber.Ctx) error {
	var input ClientInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizeDTO(&input)

	client := models.Client{
		Name:    input.Name,
		Email:   utils.NilIfEmpty(input.Email),
		Phone:   utils.NilIfEmpty(input.Phone),
		Address: input.Address,
		GST:     utils.NilIfEmpty(input.GST),
	}
	if !client.HasContact() {
		c.Status(fiber.StatusUnprocessableEntity)
		return c.JSON(fiber.Map{
			"message": "client needs at least an email or a phone number",
		})
	}

	tx := middlewares.Tx(c)
	if err := tx.Create(&client).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not create client",
			"error":   err.Error(),
		})
	}
	return c.JSON(client)
}

func GetClients(c *fiber.Ctx) error {
	var clients []models.Client
	if err := middlewares.Tx(c).Order("name ASC").Find(&clients).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"clients": clients,
		"message": "success",
	})
}

func GetClient(c *fiber.Ctx) error {
	var client models.Client
	if err := middlewares.Tx(c).First(&client, "id = ?", c.Params("id")).Error; err != nil {
		return err
	}
	return c.JSON(client)
}

// ClientPatch updates only the provided fields; empty contact strings
// clear the column back to NULL.
type ClientPatch struct {
	Name    *string `json:"name" validate:"omitempty,min=3,max=100"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address" validate:"omitempty,max=255"`
	GST     *string `json:"gst" validate:"omitempty,max=50"`
}

func UpdateClient(c *fiber.Ctx) error {
	var patch ClientPatch
	if err := middlewares.BindAndValidate(c, &patch); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&patch)

	tx := middlewares.Tx(c)

	var client models.Client
	if err := tx.First(&client, "id = ?", c.Params("id")).Error; err != nil {
		return err
	}

	if patch.Name != nil {
		client.Name = *patch.Name
	}
	if patch.Email != nil {
		client.Email = utils.NilIfEmpty(*patch.Email)
	}
	if patch.Phone != nil {
		client.Phone = utils.NilIfEmpty(*patch.Phone)
	}
	if patch.Address != nil {
		client.Address = *patch.Address
	}
	if patch.GST != nil {
		client.GST = utils.NilIfEmpty(*patch.GST)
	}

	if !client.HasContact() {
		c.Status(fiber.StatusUnprocessableEntity)
		return c.JSON(fiber.Map{
			"message": "client needs at least an email or a phone number",
		})
	}

	if err := tx.Save(&client).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not update client",
			"error":   err.Error(),
		})
	}
	return c.JSON(client)
}

func DeleteClient(c *fiber.Ctx) error {
	tx := middlewares.Tx(c)

	var client models.Client
	if err := tx.First(&client, "id = ?", c.Params("id")).Error; err != nil {
		return err
	}
	// Soft delete; invoices keep their back-reference.
	if err := tx.Delete(&client).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "success"})
}
