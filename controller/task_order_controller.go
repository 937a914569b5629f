// api/controller/task_order_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	atat_errors "github.com/ccpo-cloud/atat/errors"
	"github.com/ccpo-cloud/atat/middleware"
	"github.com/ccpo-cloud/atat/model"
	"github.com/ccpo-cloud/atat/service"
	"github.com/ccpo-cloud/atat/util"
)

type TaskOrderController struct {
	taskOrderService service.ITaskOrderService
}

func NewTaskOrderController(taskOrderService service.ITaskOrderService) *TaskOrderController {
	return &TaskOrderController{
		taskOrderService: taskOrderService,
	}
}

// RegisterRoutes registers the API routes
func (tc *TaskOrderController) RegisterRoutes(r *gin.RouterGroup) {
	taskOrders := r.Group("/task-orders")
	{
		taskOrders.POST("", tc.CreateTaskOrder)
		taskOrders.GET("/:id", tc.GetTaskOrder)
		taskOrders.PUT("/:id", tc.UpdateTaskOrder)
	}
	r.GET("/portfolios/:id/task-orders", tc.ListTaskOrders)
}

// CreateTaskOrder endpoint
func (tc *TaskOrderController) CreateTaskOrder(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var taskOrder model.TaskOrder
	if err := c.ShouldBindJSON(&taskOrder); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid task order data", err)
		return
	}

	created, err := tc.taskOrderService.CreateTaskOrder(c, actingUser, taskOrder)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetTaskOrder endpoint
func (tc *TaskOrderController) GetTaskOrder(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	taskOrder, err := tc.taskOrderService.GetTaskOrder(c, actingUser, c.Param("id"))
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskOrder)
}

// UpdateTaskOrder endpoint
func (tc *TaskOrderController) UpdateTaskOrder(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var taskOrder model.TaskOrder
	if err := c.ShouldBindJSON(&taskOrder); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid task order data", err)
		return
	}
	taskOrder.ID = c.Param("id")

	updated, err := tc.taskOrderService.UpdateTaskOrder(c, actingUser, taskOrder)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// ListTaskOrders endpoint
func (tc *TaskOrderController) ListTaskOrders(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	taskOrders, err := tc.taskOrderService.ListTaskOrders(c, actingUser, c.Param("id"))
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskOrders)
}
