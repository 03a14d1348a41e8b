package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateRegistrationRequest struct {
	EventID  uint `json:"event_id"`
	Quantity int  `json:"quantity"`
}

func (req *CreateRegistrationRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.EventID, validation.Required),
		validation.Field(&req.Quantity, validation.Required, validation.Min(1)),
	)
}
