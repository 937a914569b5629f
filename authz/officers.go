// api/authz/officers.go
package authz

import (
	"context"

	"github.com/ccpo-cloud/atat/errors"
	"github.com/ccpo-cloud/atat/model"
)

// Officer checks are strict identity comparisons against a task order's named
// officer fields. They deliberately bypass the permission-set resolver:
// officers are always one exact person, never a delegated capability.

// TaskOrderReader lists a portfolio's task orders for officer resolution.
type TaskOrderReader interface {
	TaskOrdersForPortfolio(ctx context.Context, portfolioID string) ([]*model.TaskOrder, error)
}

// OfficerChecker answers "is this user a named officer" questions.
type OfficerChecker struct {
	taskOrders TaskOrderReader
}

func NewOfficerChecker(taskOrders TaskOrderReader) *OfficerChecker {
	return &OfficerChecker{taskOrders: taskOrders}
}

// IsOfficerOf reports whether the user is KO, COR or SO on the given order.
func (c *OfficerChecker) IsOfficerOf(user *model.User, taskOrder *model.TaskOrder) bool {
	return user != nil && taskOrder.IsOfficer(user.ID)
}

// CheckIsContractingOfficer fails unless the user is the order's KO.
func (c *OfficerChecker) CheckIsContractingOfficer(user *model.User, taskOrder *model.TaskOrder) error {
	if user == nil || !taskOrder.IsContractingOfficer(user.ID) {
		return unauthorizedOfficer(user, "act as contracting officer")
	}
	return nil
}

// CheckIsKOOrCOR fails unless the user is the order's KO or COR.
func (c *OfficerChecker) CheckIsKOOrCOR(user *model.User, taskOrder *model.TaskOrder) error {
	if user == nil || (!taskOrder.IsContractingOfficer(user.ID) && !taskOrder.IsContractingOfficerRep(user.ID)) {
		return unauthorizedOfficer(user, "act as contracting officer or representative")
	}
	return nil
}

// CheckIsSecurityOfficer fails unless the user is the order's SO.
func (c *OfficerChecker) CheckIsSecurityOfficer(user *model.User, taskOrder *model.TaskOrder) error {
	if user == nil || !taskOrder.IsSecurityOfficer(user.ID) {
		return unauthorizedOfficer(user, "act as security officer")
	}
	return nil
}

// IsPortfolioOfficer reports whether the user holds any officer position on
// any of the portfolio's task orders.
func (c *OfficerChecker) IsPortfolioOfficer(ctx context.Context, user *model.User, portfolioID string) (bool, error) {
	if user == nil {
		return false, nil
	}
	orders, err := c.taskOrders.TaskOrdersForPortfolio(ctx, portfolioID)
	if err != nil {
		return false, err
	}
	for _, to := range orders {
		if to.IsOfficer(user.ID) {
			return true, nil
		}
	}
	return false, nil
}

func unauthorizedOfficer(user *model.User, action string) error {
	userID := ""
	if user != nil {
		userID = user.ID
	}
	return errors.Unauthorized(userID, action)
}
