package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/eventtix/eventtix-api/internal/domain"
)

type CreateEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Capacity    int    `json:"capacity"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Description, validation.Length(0, 500)),
		validation.Field(&req.Location, validation.Length(0, 200)),
		validation.Field(&req.Date, validation.Required, validation.Date("02/01/2006")),
		validation.Field(&req.Capacity, validation.Required, validation.Min(1)),
	)
}

type UpdateEventStatusRequest struct {
	Status string `json:"status"`
}

func (req *UpdateEventStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required, validation.In(
			domain.EventStatusOngoing,
			domain.EventStatusCompleted,
			domain.EventStatusCancelled,
		)),
	)
}
