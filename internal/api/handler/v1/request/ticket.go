package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type IssueTicketsRequest struct {
	RegistrationID uint `json:"registration_id"`
	Quantity       int  `json:"quantity"`
}

func (req *IssueTicketsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.RegistrationID, validation.Required),
		validation.Field(&req.Quantity, validation.Required, validation.Min(1)),
	)
}

type ScanTicketRequest struct {
	Code string `json:"code"`
}

func (req *ScanTicketRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Code, validation.Required, validation.Length(8, 64)),
	)
}
