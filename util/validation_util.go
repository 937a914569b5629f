// api/util/validation_util.go

package util

import (
	"fmt"
	"net/mail"

	"github.com/ccpo-cloud/atat/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

func (v *ValidationUtil) ValidateUser(user *model.User) error {
	if user.DodID == "" {
		return fmt.Errorf("user DoD ID cannot be empty")
	}
	if user.Email != "" {
		if _, err := mail.ParseAddress(user.Email); err != nil {
			return fmt.Errorf("user email is not a valid address")
		}
	}
	// Add more validation rules as needed
	return nil
}

func (v *ValidationUtil) ValidatePortfolio(portfolio *model.Portfolio) error {
	if portfolio.Name == "" {
		return fmt.Errorf("portfolio name cannot be empty")
	}
	// Add more validation rules as needed
	return nil
}

func (v *ValidationUtil) ValidateApplication(application *model.Application) error {
	if application.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}
	if application.PortfolioID == "" {
		return fmt.Errorf("application portfolio ID cannot be empty")
	}
	// Add more validation rules as needed
	return nil
}

func (v *ValidationUtil) ValidateEnvironment(environment *model.Environment) error {
	if environment.Name == "" {
		return fmt.Errorf("environment name cannot be empty")
	}
	if environment.ApplicationID == "" {
		return fmt.Errorf("environment application ID cannot be empty")
	}
	// Add more validation rules as needed
	return nil
}

func (v *ValidationUtil) ValidateInvitation(invitation *model.Invitation) error {
	if invitation.DodID == "" {
		return fmt.Errorf("invitation DoD ID cannot be empty")
	}
	if invitation.Email == "" {
		return fmt.Errorf("invitation email cannot be empty")
	}
	if _, err := mail.ParseAddress(invitation.Email); err != nil {
		return fmt.Errorf("invitation email is not a valid address")
	}
	if invitation.RoleID == "" {
		return fmt.Errorf("invitation role ID cannot be empty")
	}
	// Add more validation rules as needed
	return nil
}

func (v *ValidationUtil) ValidateTaskOrder(taskOrder *model.TaskOrder) error {
	if taskOrder.Number == "" {
		return fmt.Errorf("task order number cannot be empty")
	}
	if taskOrder.PortfolioID == "" {
		return fmt.Errorf("task order portfolio ID cannot be empty")
	}
	if taskOrder.StartDate != nil && taskOrder.EndDate != nil && taskOrder.EndDate.Before(*taskOrder.StartDate) {
		return fmt.Errorf("task order end date cannot precede its start date")
	}
	// Add more validation rules as needed
	return nil
}
