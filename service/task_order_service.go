// api/service/task_order_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ccpo-cloud/atat/audit"
	"github.com/ccpo-cloud/atat/authz"
	"github.com/ccpo-cloud/atat/dao"
	atat_errors "github.com/ccpo-cloud/atat/errors"
	logger "github.com/ccpo-cloud/atat/logging"
	"github.com/ccpo-cloud/atat/model"
	"github.com/ccpo-cloud/atat/util"
)

// ITaskOrderService defines the interface for task order operations
type ITaskOrderService interface {
	CreateTaskOrder(ctx context.Context, actingUser *model.User, taskOrder model.TaskOrder) (*model.TaskOrder, error)
	GetTaskOrder(ctx context.Context, actingUser *model.User, taskOrderID string) (*model.TaskOrder, error)
	ListTaskOrders(ctx context.Context, actingUser *model.User, portfolioID string) ([]*model.TaskOrder, error)
	UpdateTaskOrder(ctx context.Context, actingUser *model.User, taskOrder model.TaskOrder) (*model.TaskOrder, error)
}

// TaskOrderService handles business logic for task orders. Access combines
// two separate paths: portfolio permission sets, and named-officer identity
// on the order itself.
type TaskOrderService struct {
	taskOrderDAO   *dao.TaskOrderDAO
	resolver       *authz.Resolver
	officers       *authz.OfficerChecker
	validationUtil *util.ValidationUtil
	eventBus       *util.EventBus
}

var _ ITaskOrderService = &TaskOrderService{}

// NewTaskOrderService creates a new instance of TaskOrderService
func NewTaskOrderService(taskOrderDAO *dao.TaskOrderDAO, resolver *authz.Resolver, officers *authz.OfficerChecker, validationUtil *util.ValidationUtil, eventBus *util.EventBus) *TaskOrderService {
	return &TaskOrderService{
		taskOrderDAO:   taskOrderDAO,
		resolver:       resolver,
		officers:       officers,
		validationUtil: validationUtil,
		eventBus:       eventBus,
	}
}

// CreateTaskOrder records a funding vehicle on the portfolio.
func (s *TaskOrderService) CreateTaskOrder(ctx context.Context, actingUser *model.User, taskOrder model.TaskOrder) (*model.TaskOrder, error) {
	if err := s.validationUtil.ValidateTaskOrder(&taskOrder); err != nil {
		return nil, fmt.Errorf("invalid task order: %w", err)
	}
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermCreateTaskOrder, taskOrder.PortfolioID, "create task order"); err != nil {
		return nil, err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	taskOrderID, err := s.taskOrderDAO.CreateTaskOrder(ctx, actor, &taskOrder)
	if err != nil {
		logger.Error("Error creating task order", zap.Error(err), zap.String("portfolioID", taskOrder.PortfolioID))
		return nil, err
	}
	taskOrder.ID = taskOrderID

	s.eventBus.Publish(ctx, "task_order.created", &taskOrder)
	return &taskOrder, nil
}

// GetTaskOrder returns the order to anyone who either holds the view
// permission in the portfolio or is one of its named officers.
func (s *TaskOrderService) GetTaskOrder(ctx context.Context, actingUser *model.User, taskOrderID string) (*model.TaskOrder, error) {
	taskOrder, err := s.taskOrderDAO.GetTaskOrder(ctx, taskOrderID)
	if err != nil {
		return nil, err
	}

	if s.officers.IsOfficerOf(actingUser, taskOrder) {
		return taskOrder, nil
	}
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermViewTaskOrderDetails,
		taskOrder.PortfolioID, "view task order"); err != nil {
		return nil, err
	}
	return taskOrder, nil
}

// ListTaskOrders returns the portfolio's funding vehicles.
func (s *TaskOrderService) ListTaskOrders(ctx context.Context, actingUser *model.User, portfolioID string) ([]*model.TaskOrder, error) {
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermViewPortfolioFunding, portfolioID, "view portfolio funding"); err != nil {
		return nil, err
	}
	return s.taskOrderDAO.TaskOrdersForPortfolio(ctx, portfolioID)
}

// UpdateTaskOrder saves edits. The KO and COR may edit the orders they are
// named on regardless of their permission sets.
func (s *TaskOrderService) UpdateTaskOrder(ctx context.Context, actingUser *model.User, taskOrder model.TaskOrder) (*model.TaskOrder, error) {
	if err := s.validationUtil.ValidateTaskOrder(&taskOrder); err != nil {
		return nil, fmt.Errorf("invalid task order: %w", err)
	}

	existing, err := s.taskOrderDAO.GetTaskOrder(ctx, taskOrder.ID)
	if err != nil {
		return nil, err
	}
	if taskOrder.PortfolioID != existing.PortfolioID {
		return nil, atat_errors.ErrInvalidResource
	}

	if err := s.officers.CheckIsKOOrCOR(actingUser, existing); err != nil {
		if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermEditTaskOrderDetails,
			existing.PortfolioID, "edit task order"); err != nil {
			return nil, err
		}
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.taskOrderDAO.UpdateTaskOrder(ctx, actor, &taskOrder); err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, "task_order.updated", &taskOrder)
	return &taskOrder, nil
}
