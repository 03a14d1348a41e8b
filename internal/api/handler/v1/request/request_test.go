package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignupRequest_Validate(t *testing.T) {
	valid := SignupRequest{
		Email:           "jane@example.com",
		Password:        "passw0rd1",
		ConfirmPassword: "passw0rd1",
		Name:            "Jane",
		Role:            "student",
	}

	t.Run("valid", func(t *testing.T) {
		req := valid
		assert.NoError(t, req.Validate())
	})

	t.Run("bad email", func(t *testing.T) {
		req := valid
		req.Email = "not-an-email"
		assert.Error(t, req.Validate())
	})

	t.Run("password too short", func(t *testing.T) {
		req := valid
		req.Password = "a1"
		req.ConfirmPassword = "a1"
		assert.ErrorIs(t, req.Validate(), errInvalidPassword)
	})

	t.Run("password without digit", func(t *testing.T) {
		req := valid
		req.Password = "passwords"
		req.ConfirmPassword = "passwords"
		assert.ErrorIs(t, req.Validate(), errInvalidPassword)
	})

	t.Run("confirm mismatch", func(t *testing.T) {
		req := valid
		req.ConfirmPassword = "different1"
		assert.ErrorIs(t, req.Validate(), errConfirmPasswordMismatch)
	})

	t.Run("admin role is not self-registerable", func(t *testing.T) {
		req := valid
		req.Role = "admin"
		assert.Error(t, req.Validate())
	})
}

func TestCreateEventRequest_Validate(t *testing.T) {
	valid := CreateEventRequest{
		Name:     "Spring Fair",
		Date:     "15/05/2026",
		Capacity: 100,
	}

	t.Run("valid", func(t *testing.T) {
		req := valid
		assert.NoError(t, req.Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		req := valid
		req.Name = ""
		assert.Error(t, req.Validate())
	})

	t.Run("bad date", func(t *testing.T) {
		req := valid
		req.Date = "2026-05-15"
		assert.Error(t, req.Validate())
	})

	t.Run("zero capacity", func(t *testing.T) {
		req := valid
		req.Capacity = 0
		assert.Error(t, req.Validate())
	})
}

func TestCreateRegistrationRequest_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := CreateRegistrationRequest{EventID: 1, Quantity: 2}
		assert.NoError(t, req.Validate())
	})

	t.Run("missing event", func(t *testing.T) {
		req := CreateRegistrationRequest{Quantity: 2}
		assert.Error(t, req.Validate())
	})

	t.Run("zero quantity", func(t *testing.T) {
		req := CreateRegistrationRequest{EventID: 1}
		assert.Error(t, req.Validate())
	})
}

func TestIssueTicketsRequest_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := IssueTicketsRequest{RegistrationID: 1, Quantity: 2}
		assert.NoError(t, req.Validate())
	})

	t.Run("zero quantity", func(t *testing.T) {
		req := IssueTicketsRequest{RegistrationID: 1}
		assert.Error(t, req.Validate())
	})
}

func TestScanTicketRequest_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := ScanTicketRequest{Code: "3f2b8a1cd4e5463f8f1a2b3c4d5e6f70"}
		assert.NoError(t, req.Validate())
	})

	t.Run("missing code", func(t *testing.T) {
		req := ScanTicketRequest{}
		assert.Error(t, req.Validate())
	})

	t.Run("code too short", func(t *testing.T) {
		req := ScanTicketRequest{Code: "abc"}
		assert.Error(t, req.Validate())
	})
}
